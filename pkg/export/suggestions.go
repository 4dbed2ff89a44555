package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ndelcourt/optidispatch/core/suggest"
)

// WriteSuggestionsCSV writes the ranked technician options to w.
func WriteSuggestionsCSV(w io.Writer, options []suggest.Option) error {
	cw := csv.NewWriter(w)
	header := []string{
		"dispatch_id", "rank", "technician_id", "technician_name", "technician_skill",
		"distance_km", "skill_match", "success_probability", "estimated_duration", "rating",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, o := range options {
		rec := []string{
			o.DispatchID,
			strconv.Itoa(o.Rank),
			o.TechnicianID,
			o.TechnicianName,
			o.TechnicianSkill,
			formatFloat(o.DistanceKm),
			strconv.FormatBool(o.SkillMatch),
			formatFloat(o.SuccessProbability),
			formatFloat(o.EstimatedDuration),
			formatFloat(o.Rating),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
