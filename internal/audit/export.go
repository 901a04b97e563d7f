package audit

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"
)

// WriteCSV writes the timeline rows with their metadata as JSON.
func WriteCSV(w io.Writer, rows []TimelineRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Fecha", "Acción", "Entidad", "ID", "Detalle"}); err != nil {
		return err
	}
	for _, row := range rows {
		meta := ""
		if len(row.Meta) > 0 {
			raw, err := json.Marshal(row.Meta)
			if err != nil {
				return err
			}
			meta = string(raw)
		}
		if err := writer.Write([]string{row.At.Format(time.RFC3339), row.Label(), row.Entity, row.EntityID, meta}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
