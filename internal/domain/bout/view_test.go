package bout_test

import (
	"testing"

	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestState_View(t *testing.T) {
	Convey("Given a named bout in round 2", t, func() {
		s := newState()
		s.SetMetadata(bout.Metadata{Judge: "Jo", BoutID: "9", FighterA: "Ann", FighterB: "Bea"})
		mustScore(s, model.CompetitorA, model.KindHead)
		s.Advance()
		mustScore(s, model.CompetitorB, model.KindPillowBreak)
		s.StartClock()
		s.Tick()

		v := s.View()

		Convey("Then the header and clock are rendered", func() {
			So(v.Title, ShouldEqual, "Ann vs Bea  Round 2")
			So(v.Round, ShouldEqual, "R2")
			So(v.RoundLabel, ShouldEqual, "Round 2")
			So(v.Clock, ShouldResemble, bout.ClockView{Remaining: 89, Display: "01:29", Running: true})
		})

		Convey("Then the table and totals reflect the events", func() {
			So(v.Scores[0], ShouldResemble, bout.ScoreRow{Round: "Round 1", A: 1, B: 0, Sum: 1})
			So(v.Scores[1], ShouldResemble, bout.ScoreRow{Round: "Round 2", A: 0, B: 3, Sum: 3})
			So(v.RoundTotalA, ShouldEqual, 0)
			So(v.RoundTotalB, ShouldEqual, 3)
			So(v.TotalA, ShouldEqual, 1)
			So(v.TotalB, ShouldEqual, 3)
			So(v.TiebreakerEnabled, ShouldBeFalse)
		})

		Convey("Then event rows use wall time and short round names", func() {
			So(v.Events, ShouldResemble, []bout.EventRow{
				{Time: "18:30:01", Fighter: "A", Round: "R1", Label: "Head", Points: 1},
				{Time: "18:30:02", Fighter: "B", Round: "R2", Label: "Pillow Break", Points: 3},
			})
		})

		Convey("Then the score sheet names the winner", func() {
			sheet := s.ScoreSheet()
			So(sheet.Winner, ShouldEqual, "Bea")
			So(sheet.TotalA, ShouldEqual, 1)
			So(sheet.TotalB, ShouldEqual, 3)
			So(sheet.Judge, ShouldEqual, "Jo")
			So(len(sheet.Events), ShouldEqual, 2)
		})
	})

	Convey("Given a level bout", t, func() {
		s := newState()

		Convey("Then the sheet reports a draw", func() {
			So(s.ScoreSheet().Winner, ShouldEqual, bout.DrawLabel)
			So(s.View().Title, ShouldEqual, "Fighter A vs Fighter B  Round 1")
		})
	})

	Convey("Given the tiebreaker label", t, func() {
		So(bout.RoundLabel(model.Tiebreaker, 30), ShouldEqual, "Tiebreaker 30s")
		So(bout.RoundLabel(model.Tiebreaker, 90), ShouldEqual, "Tiebreaker 01:30")
		So(bout.RoundLabel(model.Round3, 30), ShouldEqual, "Round 3")
	})
}
