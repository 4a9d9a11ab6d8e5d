package normalizer

import (
	"errors"

	"ecpharm/internal/models"
	"ecpharm/internal/sheet"
)

// ErrNilFrame is returned when there is no table to transform.
var ErrNilFrame = errors.New("invalid data: nil frame")

// Transformer projects the clean table onto the public record schema.
type Transformer struct {
	fields []models.RecordField
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{
		fields: models.RecordFields,
	}
}

// Transform converts every row to a CleanRecord. Absent columns give empty
// strings, or a null id.
func (t *Transformer) Transform(frame *sheet.Frame) ([]models.CleanRecord, error) {
	if frame == nil {
		return nil, ErrNilFrame
	}

	records := make([]models.CleanRecord, frame.Len())

	for i := range records {
		rec := &records[i]

		for _, f := range t.fields {
			v, _ := frame.Value(i, f.Column)

			if f.Key == "id" {
				if id, ok := ParseID(v); ok {
					rec.ID = &id
				}
				continue
			}

			rec.Set(f.Key, Text(v))
		}
	}

	return records, nil
}
