package board_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/board"
	"github.com/Abhishekmadoliya/collaborative-whiteboard/internal/models"
)

// fakeSender records every event queued for one member
type fakeSender struct {
	mu     sync.Mutex
	events []models.Event
}

func (f *fakeSender) Send(data []byte) bool {
	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return true
}

func (f *fakeSender) received() []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Event(nil), f.events...)
}

func rawShape(id string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":%q,"type":"rect","x":10,"y":10,"width":50,"height":30,"color":"#ff0000"}`, id))
}

func TestJoinEmptyRoomSendsEmptySnapshot(t *testing.T) {
	reg := board.NewRegistry()
	s := &fakeSender{}

	reg.Join("abc", "m1", s)

	events := s.received()
	require.Len(t, events, 1)
	require.Equal(t, models.EventInitialShapes, events[0].Type)
	require.JSONEq(t, `[]`, string(events[0].Payload))
}

func TestLateJoinerReceivesFullLogInOrder(t *testing.T) {
	reg := board.NewRegistry()
	first := &fakeSender{}
	reg.Join("abc", "m1", first)

	for i := 0; i < 5; i++ {
		reg.AppendAndRelay("abc", "m1", rawShape(fmt.Sprintf("s%d", i)))
	}

	late := &fakeSender{}
	reg.Join("abc", "m2", late)

	events := late.received()
	require.Len(t, events, 1)
	require.Equal(t, models.EventInitialShapes, events[0].Type)

	var shapes []models.Shape
	require.NoError(t, json.Unmarshal(events[0].Payload, &shapes))
	require.Len(t, shapes, 5)
	for i, shape := range shapes {
		require.Equal(t, fmt.Sprintf("s%d", i), shape.ID)
	}
}

func TestAppendRelaysToOthersButNotSender(t *testing.T) {
	reg := board.NewRegistry()
	a, b := &fakeSender{}, &fakeSender{}
	reg.Join("abc", "a", a)
	reg.Join("abc", "b", b)

	reg.AppendAndRelay("abc", "a", rawShape("s1"))

	bEvents := b.received()
	require.Len(t, bEvents, 2) // snapshot + draw
	require.Equal(t, models.EventDraw, bEvents[1].Type)
	require.Equal(t, "a", bEvents[1].From)
	require.JSONEq(t, string(rawShape("s1")), string(bEvents[1].Payload))

	// The sender only ever saw its join snapshot
	require.Len(t, a.received(), 1)
}

func TestAppendToUnknownRoomIsNoop(t *testing.T) {
	reg := board.NewRegistry()

	reg.AppendAndRelay("nowhere", "a", rawShape("s1"))

	require.Zero(t, reg.RoomCount())
	require.Nil(t, reg.Shapes("nowhere"))
}

func TestLogIsAppendOnly(t *testing.T) {
	reg := board.NewRegistry()
	reg.Join("abc", "a", &fakeSender{})

	var prev []json.RawMessage
	for i := 0; i < 10; i++ {
		reg.AppendAndRelay("abc", "a", rawShape(fmt.Sprintf("s%d", i)))

		shapes := reg.Shapes("abc")
		require.Len(t, shapes, i+1)
		for j, raw := range prev {
			require.Equal(t, string(raw), string(shapes[j]))
		}
		prev = shapes
	}
}

func TestConcurrentAppendsAllLand(t *testing.T) {
	reg := board.NewRegistry()
	a, b := &fakeSender{}, &fakeSender{}
	reg.Join("abc", "a", a)
	reg.Join("abc", "b", b)

	const perSender = 50
	var wg sync.WaitGroup
	for _, member := range []string{"a", "b"} {
		wg.Add(1)
		go func(member string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				reg.AppendAndRelay("abc", member, rawShape(fmt.Sprintf("%s-%d", member, i)))
			}
		}(member)
	}
	wg.Wait()

	shapes := reg.Shapes("abc")
	require.Len(t, shapes, 2*perSender)

	seen := make(map[string]int)
	for _, raw := range shapes {
		var shape models.Shape
		require.NoError(t, json.Unmarshal(raw, &shape))
		seen[shape.ID]++
	}
	for id, n := range seen {
		require.Equal(t, 1, n, "shape %s appended %d times", id, n)
	}
	require.Len(t, seen, 2*perSender)
}

func TestCursorRelayStampsSenderAndIsNotPersisted(t *testing.T) {
	reg := board.NewRegistry()
	a, b := &fakeSender{}, &fakeSender{}
	reg.Join("abc", "a", a)
	reg.Join("abc", "b", b)

	reg.RelayCursor("abc", "a", json.RawMessage(`{"x":5,"y":7,"color":"#00ff00"}`))

	bEvents := b.received()
	require.Len(t, bEvents, 2)
	require.Equal(t, models.EventCursorMove, bEvents[1].Type)
	require.Equal(t, "a", bEvents[1].From)

	require.Len(t, a.received(), 1)
	require.Empty(t, reg.Shapes("abc"))
}

func TestClearEmptiesLogAndRelays(t *testing.T) {
	reg := board.NewRegistry()
	a, b := &fakeSender{}, &fakeSender{}
	reg.Join("abc", "a", a)
	reg.Join("abc", "b", b)
	reg.AppendAndRelay("abc", "a", rawShape("s1"))

	reg.ClearAndRelay("abc", "a")

	require.Empty(t, reg.Shapes("abc"))

	bEvents := b.received()
	require.Equal(t, models.EventClear, bEvents[len(bEvents)-1].Type)
	require.Len(t, a.received(), 1)
}

func TestLeaveBroadcastsMemberLeftAndKeepsLog(t *testing.T) {
	reg := board.NewRegistry()
	a, b := &fakeSender{}, &fakeSender{}
	reg.Join("abc", "a", a)
	reg.Join("abc", "b", b)
	reg.AppendAndRelay("abc", "b", rawShape("s1"))

	reg.Leave("abc", "b")

	aEvents := a.received()
	last := aEvents[len(aEvents)-1]
	require.Equal(t, models.EventMemberLeft, last.Type)
	require.Equal(t, "b", last.From)

	require.Equal(t, 1, reg.MemberCount("abc"))
	require.Len(t, reg.Shapes("abc"), 1)
}

func TestEmptyRoomIsReaped(t *testing.T) {
	reg := board.NewRegistry()
	reg.Join("abc", "a", &fakeSender{})
	reg.Join("abc", "b", &fakeSender{})
	require.Equal(t, 1, reg.RoomCount())

	reg.Leave("abc", "a")
	require.Equal(t, 1, reg.RoomCount())

	reg.Leave("abc", "b")
	require.Zero(t, reg.RoomCount())

	// Rejoining starts a fresh room with an empty log
	s := &fakeSender{}
	reg.Join("abc", "c", s)
	require.JSONEq(t, `[]`, string(s.received()[0].Payload))
}

func TestRegistriesAreIndependent(t *testing.T) {
	reg1, reg2 := board.NewRegistry(), board.NewRegistry()
	reg1.Join("abc", "a", &fakeSender{})
	reg1.AppendAndRelay("abc", "a", rawShape("s1"))

	require.Zero(t, reg2.RoomCount())
	require.Nil(t, reg2.Shapes("abc"))
}

func TestJoinRacingLastLeaveKeepsJoinerLive(t *testing.T) {
	for i := 0; i < 200; i++ {
		reg := board.NewRegistry()
		reg.Join("race", "a", &fakeSender{})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Leave("race", "a")
		}()
		go func() {
			defer wg.Done()
			reg.Join("race", "b", &fakeSender{})
		}()
		wg.Wait()

		// Whether the join lands before or after the last leave reaps the
		// room, b must end up in the room the registry serves, so its
		// draws are recorded and late joiners will see them.
		require.Equal(t, 1, reg.MemberCount("race"))
		reg.AppendAndRelay("race", "b", rawShape("after-race"))
		require.Len(t, reg.Shapes("race"), 1)
	}
}
