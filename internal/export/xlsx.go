package export

import (
	"fmt"
	"io"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/xuri/excelize/v2"
)

const attemptsSheet = "Attempts"

var attemptHeaders = []interface{}{
	"User", "IP", "Device", "Score (%)", "Correct", "Wrong", "Unanswered", "Finish", "Date", "Comment",
}

// WriteAttemptsXLSX writes one row per attempt to a workbook.
func WriteAttemptsXLSX(w io.Writer, quizTitle string, attempts []models.QuizAttempt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attemptsSheet); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: quizTitle, Creator: "cdcfib-mock-test"}); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(attemptsSheet)
	if err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	header := make([]interface{}, len(attemptHeaders))
	for i, h := range attemptHeaders {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, a := range attempts {
		comment := ""
		if a.Comment != nil {
			comment = *a.Comment
		}
		row := []interface{}{
			a.UserName, a.IPAddress, a.Device, a.Score,
			a.TotalCorrect, a.TotalWrong, a.TotalUnanswered,
			string(a.FinishReason), a.Timestamp.Format(DateLayout), comment,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write attempt %s: %w", a.ID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	return f.Write(w)
}
