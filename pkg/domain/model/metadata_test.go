package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docket-lab/docket/pkg/domain/model"
	"github.com/docket-lab/docket/pkg/domain/types"
)

func TestMetadataMerge(t *testing.T) {
	t.Run("fresh values win", func(t *testing.T) {
		existing := model.Metadata{PANNumber: "AAAAA1111A", Deliverable: types.DeliverablePDF}
		fresh := model.Metadata{PANNumber: "BBBBB2222B"}

		merged := existing.Merge(fresh)
		gt.Value(t, merged.PANNumber).Equal("BBBBB2222B")
		gt.Value(t, merged.Deliverable).Equal(types.DeliverablePDF)
	})

	t.Run("URLs are unioned without duplicates", func(t *testing.T) {
		existing := model.Metadata{URLs: []string{"https://a.example.com"}}
		fresh := model.Metadata{URLs: []string{"https://a.example.com", "https://b.example.com"}}

		merged := existing.Merge(fresh)
		gt.A(t, merged.URLs).Length(2)
	})

	t.Run("empty fresh metadata changes nothing", func(t *testing.T) {
		existing := model.Metadata{PANNumber: "AAAAA1111A", URLs: []string{"https://a.example.com"}}
		merged := existing.Merge(model.Metadata{})
		gt.Value(t, merged.PANNumber).Equal("AAAAA1111A")
		gt.A(t, merged.URLs).Length(1)
	})
}

func TestMetadataClone(t *testing.T) {
	orig := model.Metadata{URLs: []string{"https://a.example.com"}}
	clone := orig.Clone()
	clone.URLs[0] = "https://tampered.example.com"
	gt.Value(t, orig.URLs[0]).Equal("https://a.example.com")
}

func TestMetadataIsEmpty(t *testing.T) {
	gt.B(t, model.Metadata{}.IsEmpty()).True()
	gt.B(t, model.Metadata{PANNumber: "AAAAA1111A"}.IsEmpty()).False()
	gt.B(t, model.Metadata{Deliverable: types.DeliverablePhoto}.IsEmpty()).False()
}
