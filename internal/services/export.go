package services

import (
	"encoding/csv"
	"io"
	"strconv"

	"nexus-analytics/internal/models"
)

// rfmExportHeader is the column order of the downloadable segment table.
var rfmExportHeader = []string{
	"CustomerID", "Recency", "Frequency", "Monetary",
	"R_Score", "F_Score", "M_Score", "Segment",
}

// WriteRFMCSV writes the segmented customer table as CSV.
func WriteRFMCSV(w io.Writer, result models.RFMResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rfmExportHeader); err != nil {
		return err
	}
	for _, c := range result.Customers {
		row := []string{
			c.CustomerID,
			strconv.Itoa(c.RecencyDays),
			strconv.Itoa(c.Frequency),
			strconv.FormatFloat(c.Monetary, 'f', 2, 64),
			strconv.Itoa(c.RScore),
			strconv.Itoa(c.FScore),
			strconv.Itoa(c.MScore),
			c.Segment,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
