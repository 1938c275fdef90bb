package eventlog_test

import (
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/okian/pillowbout/internal/domain/eventlog"
	"github.com/okian/pillowbout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedClock() func() time.Time {
	base := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestLog_Append(t *testing.T) {
	Convey("Given an empty log", t, func() {
		log := eventlog.New(eventlog.WithClock(fixedClock()))

		Convey("When appending a knockdown for B in round 1", func() {
			ev, err := log.Append(model.CompetitorB, model.Round1, model.KindKnockdown)

			Convey("Then the event carries the table value and is stored", func() {
				So(err, ShouldBeNil)
				So(ev.Points, ShouldEqual, 5)
				So(ev.Competitor, ShouldEqual, model.CompetitorB)
				So(ev.Round, ShouldEqual, model.Round1)
				So(ev.Kind, ShouldEqual, model.KindKnockdown)
				So(ev.Timestamp.IsZero(), ShouldBeFalse)
				So(log.Len(), ShouldEqual, 1)
			})
		})

		Convey("When appending an unknown kind", func() {
			_, err := log.Append(model.CompetitorA, model.Round1, model.Kind("Elbow"))

			Convey("Then it is rejected and nothing is stored", func() {
				So(errors.Is(err, eventlog.ErrUnknownKind), ShouldBeTrue)
				So(log.Len(), ShouldEqual, 0)
			})
		})

		Convey("When appending for an unknown competitor", func() {
			_, err := log.Append(model.Competitor("C"), model.Round1, model.KindHead)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, eventlog.ErrInvalidCompetitor), ShouldBeTrue)
				So(log.Len(), ShouldEqual, 0)
			})
		})

		Convey("When appending into an invalid round", func() {
			_, err := log.Append(model.CompetitorA, model.Round(7), model.KindHead)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, eventlog.ErrInvalidRound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a log with a custom point table", t, func() {
		table := model.DefaultPointTable()
		table[model.KindHead] = 2
		log := eventlog.New(eventlog.WithPointTable(table))

		Convey("When the caller's table changes after construction", func() {
			table[model.KindHead] = 100
			ev, err := log.Append(model.CompetitorA, model.Round2, model.KindHead)

			Convey("Then the log keeps its own copy", func() {
				So(err, ShouldBeNil)
				So(ev.Points, ShouldEqual, 2)
			})
		})
	})
}

func TestLog_UndoLast(t *testing.T) {
	Convey("Given an empty log", t, func() {
		log := eventlog.New()

		Convey("When undoing", func() {
			_, ok := log.UndoLast()

			Convey("Then it reports empty and stays empty", func() {
				So(ok, ShouldBeFalse)
				So(log.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a log with three events", t, func() {
		log := eventlog.New(eventlog.WithClock(fixedClock()))
		_, _ = log.Append(model.CompetitorA, model.Round1, model.KindHead)
		_, _ = log.Append(model.CompetitorB, model.Round1, model.KindKnockdown)
		last, _ := log.Append(model.CompetitorA, model.Round2, model.KindPillowBreak)

		Convey("When undoing once", func() {
			ev, ok := log.UndoLast()

			Convey("Then exactly the last appended event comes back", func() {
				So(ok, ShouldBeTrue)
				So(cmp.Diff(last, ev), ShouldBeEmpty)
				So(log.Len(), ShouldEqual, 2)
				prev, _ := log.Last()
				So(prev.Kind, ShouldEqual, model.KindKnockdown)
			})
		})

		Convey("When the returned slice is modified", func() {
			events := log.Events()
			events[0].Points = 99

			Convey("Then the log is unaffected", func() {
				So(log.Events()[0].Points, ShouldEqual, 1)
			})
		})
	})
}

func TestLog_AppendUndoInverse(t *testing.T) {
	Convey("Given random event histories", t, func() {
		faker := gofakeit.New(7)
		competitors := []string{"A", "B"}

		for trial := 0; trial < 25; trial++ {
			log := eventlog.New(eventlog.WithClock(fixedClock()))
			n := faker.IntRange(0, 20)
			for i := 0; i < n; i++ {
				c := model.Competitor(faker.RandomString(competitors))
				r := model.Round(faker.IntRange(0, 3))
				k := model.Kinds[faker.IntRange(0, len(model.Kinds)-1)]
				_, err := log.Append(c, r, k)
				So(err, ShouldBeNil)
			}
			before := log.Events()

			_, err := log.Append(model.CompetitorA, model.Round3, model.KindHead)
			So(err, ShouldBeNil)
			_, ok := log.UndoLast()

			So(ok, ShouldBeTrue)
			So(cmp.Diff(before, log.Events()), ShouldBeEmpty)
		}
	})
}
