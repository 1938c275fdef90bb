package bout_test

import (
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/okian/pillowbout/internal/domain/rounds"
	. "github.com/smartystreets/goconvey/convey"
)

func stepClock() func() time.Time {
	base := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n)*time.Second + 250*time.Millisecond)
	}
}

func newState() *bout.State {
	return bout.New(bout.WithNow(stepClock()), bout.WithLocation(time.UTC))
}

func mustScore(s *bout.State, c model.Competitor, k model.Kind) {
	_, err := s.Score(c, k)
	So(err, ShouldBeNil)
}

func TestState_Scenario(t *testing.T) {
	Convey("Given a new bout", t, func() {
		s := newState()

		Convey("When A lands a head in R1, B a knockdown, then A breaks a pillow in R2", func() {
			mustScore(s, model.CompetitorA, model.KindHead)
			mustScore(s, model.CompetitorB, model.KindKnockdown)
			So(s.Advance(), ShouldEqual, rounds.Moved)
			mustScore(s, model.CompetitorA, model.KindPillowBreak)

			Convey("Then totals are A=4 and B=5 and the tiebreaker stays disabled", func() {
				So(s.CurrentRound(), ShouldEqual, model.Round2)
				So(s.TotalFor(model.CompetitorA), ShouldEqual, 4)
				So(s.TotalFor(model.CompetitorB), ShouldEqual, 5)
				So(s.RegulationTotalFor(model.CompetitorA), ShouldNotEqual, s.RegulationTotalFor(model.CompetitorB))
				So(s.TiebreakerEnabled(), ShouldBeFalse)
				So(errors.Is(s.EnterTiebreaker(), bout.ErrTiebreakerNotAllowed), ShouldBeTrue)
				So(s.CurrentRound(), ShouldEqual, model.Round2)
			})
		})
	})
}

func TestState_Tiebreaker(t *testing.T) {
	Convey("Given both fighters reach 7 points across regulation", t, func() {
		s := newState()
		mustScore(s, model.CompetitorA, model.KindKnockdown)
		mustScore(s, model.CompetitorB, model.KindPillowBreak)
		s.Advance()
		mustScore(s, model.CompetitorA, model.KindHead)
		mustScore(s, model.CompetitorB, model.KindFullRotationHead)
		s.Advance()
		mustScore(s, model.CompetitorA, model.KindLegUnbalanced)
		mustScore(s, model.CompetitorB, model.KindHead)

		So(s.RegulationTotalFor(model.CompetitorA), ShouldEqual, 7)
		So(s.RegulationTotalFor(model.CompetitorB), ShouldEqual, 7)

		Convey("Then the tiebreaker is enabled", func() {
			So(s.TiebreakerEnabled(), ShouldBeTrue)
		})

		Convey("When entering the tiebreaker", func() {
			So(s.EnterTiebreaker(), ShouldBeNil)

			Convey("Then the round, flag and clock follow", func() {
				So(s.CurrentRound(), ShouldEqual, model.Tiebreaker)
				So(s.TiebreakerUsed(), ShouldBeTrue)
				So(s.Remaining(), ShouldEqual, 30)
				So(s.ClockRunning(), ShouldBeFalse)
				So(s.TiebreakerEnabled(), ShouldBeFalse)
			})

			Convey("And scores land in the tiebreaker and count towards totals", func() {
				mustScore(s, model.CompetitorB, model.KindHead)
				So(s.ScoreFor(model.CompetitorB, model.Tiebreaker), ShouldEqual, 1)
				So(s.TotalFor(model.CompetitorB), ShouldEqual, 8)
				So(s.ScoreSheet().Winner, ShouldEqual, bout.DefaultFighterB)
			})
		})

		Convey("When an undo breaks the tie", func() {
			_, ok := s.Undo()
			So(ok, ShouldBeTrue)

			Convey("Then the tiebreaker is refused", func() {
				So(s.TiebreakerEnabled(), ShouldBeFalse)
				So(errors.Is(s.EnterTiebreaker(), bout.ErrTiebreakerNotAllowed), ShouldBeTrue)
			})
		})
	})

	Convey("Given both fighters score 5 in round 1 only", t, func() {
		s := newState()
		mustScore(s, model.CompetitorA, model.KindKnockdown)
		mustScore(s, model.CompetitorB, model.KindKnockdown)

		Convey("Then the tiebreaker may be entered from any regulation round", func() {
			So(s.TiebreakerEnabled(), ShouldBeTrue)
			s.Advance()
			So(s.TiebreakerEnabled(), ShouldBeTrue)
			s.Advance()
			So(s.EnterTiebreaker(), ShouldBeNil)
		})

		Convey("Then a 0-0 bout is never eligible", func() {
			s.Undo()
			s.Undo()
			So(s.TiebreakerEnabled(), ShouldBeFalse)
		})
	})
}

func TestState_UndoInverse(t *testing.T) {
	Convey("Given a bout with random history", t, func() {
		faker := gofakeit.New(11)
		s := newState()
		for range 12 {
			c := model.Competitors[faker.IntRange(0, 1)]
			mustScore(s, c, model.Kinds[faker.IntRange(0, len(model.Kinds)-1)])
			if faker.Bool() {
				s.Advance()
			}
		}

		Convey("When appending then undoing", func() {
			before := s.Events()
			tally := s.Tally()
			mustScore(s, model.CompetitorA, model.KindKnockdown)
			_, ok := s.Undo()

			Convey("Then events and derived scores are back to where they were", func() {
				So(ok, ShouldBeTrue)
				So(cmp.Diff(before, s.Events()), ShouldBeEmpty)
				So(s.Tally().Rounds(model.CompetitorA), ShouldResemble, tally.Rounds(model.CompetitorA))
				So(s.Tally().Rounds(model.CompetitorB), ShouldResemble, tally.Rounds(model.CompetitorB))
			})
		})
	})

	Convey("Given an empty bout", t, func() {
		s := newState()

		Convey("Then undo reports there was nothing to remove", func() {
			_, ok := s.Undo()
			So(ok, ShouldBeFalse)
			So(s.Events(), ShouldBeEmpty)
		})
	})
}

func TestState_Reset(t *testing.T) {
	Convey("Given a bout in the tiebreaker with a running clock", t, func() {
		s := newState()
		s.SetMetadata(bout.Metadata{Judge: " J ", FighterA: "Ann"})
		mustScore(s, model.CompetitorA, model.KindHead)
		mustScore(s, model.CompetitorB, model.KindHead)
		So(s.EnterTiebreaker(), ShouldBeNil)
		So(s.StartClock(), ShouldBeTrue)

		Convey("When a new bout is started", func() {
			s.Reset()

			Convey("Then everything is cleared", func() {
				So(s.Metadata(), ShouldResemble, bout.Metadata{})
				So(s.Events(), ShouldBeEmpty)
				So(s.CurrentRound(), ShouldEqual, model.Round1)
				So(s.TiebreakerUsed(), ShouldBeFalse)
				So(s.ClockRunning(), ShouldBeFalse)
				So(s.Remaining(), ShouldEqual, 90)
			})
		})
	})

	Convey("Given custom durations", t, func() {
		s := bout.New(bout.WithDurations(rounds.Durations{Round: 60, Tiebreaker: 20}))

		Convey("Then the clock starts at the round length and ticks down", func() {
			So(s.Remaining(), ShouldEqual, 60)
			So(s.StartClock(), ShouldBeTrue)
			So(s.Tick(), ShouldBeFalse)
			So(s.Remaining(), ShouldEqual, 59)
			s.ResetClock()
			So(s.Remaining(), ShouldEqual, 60)
		})
	})
}
