// Package export renders optimization results as CSV and JSON for downstream
// consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/ndelcourt/optidispatch/core/model"
)

// WriteAssignmentsJSON writes the assignment list to w in JSON format.
func WriteAssignmentsJSON(w io.Writer, assignments []model.Assignment) error {
	enc := json.NewEncoder(w)
	return enc.Encode(assignments)
}

// WriteAssignmentsCSV writes the assignment list to w in CSV format.
func WriteAssignmentsCSV(w io.Writer, assignments []model.Assignment) error {
	cw := csv.NewWriter(w)
	header := []string{
		"dispatch_id", "technician_id", "success_probability", "estimated_duration",
		"distance_km", "skill_match", "score", "provenance", "fallback_level",
		"unassigned", "reason",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range assignments {
		rec := []string{
			a.DispatchID,
			a.TechnicianID,
			formatFloat(a.SuccessProbability),
			formatFloat(a.EstimatedDuration),
			formatFloat(a.DistanceKm),
			strconv.FormatBool(a.SkillMatch),
			formatFloat(a.Score),
			a.Provenance.Kind.String(),
			strconv.Itoa(a.Provenance.FallbackLevel),
			strconv.FormatBool(a.Unassigned),
			string(a.Reason),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWarningsCSV writes the warning list to w in CSV format.
func WriteWarningsCSV(w io.Writer, warnings []model.Warning) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"dispatch_id", "technician_id", "tag", "message"}); err != nil {
		return err
	}
	for _, wr := range warnings {
		if err := cw.Write([]string{wr.DispatchID, wr.TechnicianID, wr.Tag, wr.Message}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
