package export_test

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/pillowbout/internal/adapters/export"
	"github.com/okian/pillowbout/internal/domain/bout"
)

func TestWriteXLSX(t *testing.T) {
	Convey("Given a finished score sheet", t, func() {
		sheet := bout.ScoreSheet{
			Judge:    "Jo",
			BoutID:   "12",
			FighterA: "Ann",
			FighterB: "Bea",
			Rounds: [4]bout.ScoreRow{
				{Round: "Round 1", A: 1, B: 5, Sum: 6},
				{Round: "Round 2", A: 3, B: 0, Sum: 3},
				{Round: "Round 3"},
				{Round: "Tiebreaker"},
			},
			TotalA: 4,
			TotalB: 5,
			Winner: "Bea",
			Events: []bout.EventRow{
				{Time: "18:30:01", Fighter: "A", Round: "R1", Label: "Head", Points: 1},
				{Time: "18:30:02", Fighter: "B", Round: "R1", Label: "Knockdown", Points: 5},
				{Time: "18:31:40", Fighter: "A", Round: "R2", Label: "Pillow Break", Points: 3},
			},
		}

		Convey("When it is written as a workbook", func() {
			var buf bytes.Buffer
			So(export.WriteXLSX(&buf, sheet), ShouldBeNil)

			f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
			So(err, ShouldBeNil)
			defer f.Close()
			rows, err := f.GetRows(export.SheetName)
			So(err, ShouldBeNil)

			Convey("Then the header, table, totals and log are laid out in order", func() {
				So(f.GetSheetList(), ShouldResemble, []string{export.SheetName})
				So(rows[0], ShouldResemble, []string{export.Title})
				So(rows[2], ShouldResemble, []string{"Judge", "Jo"})
				So(rows[7], ShouldResemble, []string{"Round", "Ann", "Bea", "Sum"})
				So(rows[8], ShouldResemble, []string{"Round 1", "1", "5", "6"})
				So(rows[11], ShouldResemble, []string{"Tiebreaker", "0", "0", "0"})
				So(rows[12], ShouldResemble, []string{"Total", "4", "5", "9"})
				So(rows[13], ShouldResemble, []string{"Winner", "Bea"})
				So(rows[16], ShouldResemble, []string{"Time", "Fighter", "Round", "Event", "Points"})
				So(rows[19], ShouldResemble, []string{"18:31:40", "A", "R2", "Pillow Break", "3"})
				So(rows[len(rows)-1][0], ShouldEqual, export.SignatureLabel)
			})
		})
	})

	Convey("Given an empty bout", t, func() {
		sheet := bout.New().ScoreSheet()

		Convey("Then it still renders with a draw", func() {
			var buf bytes.Buffer
			So(export.WriteXLSX(&buf, sheet), ShouldBeNil)
			f, err := excelize.OpenReader(&buf)
			So(err, ShouldBeNil)
			defer f.Close()
			v, err := f.GetCellValue(export.SheetName, "B14")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, bout.DrawLabel)
		})
	})
}
