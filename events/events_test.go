package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/splitledger/account"
)

var (
	alice = account.MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	when  = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func TestEvent_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ev   *Event
	}{
		{"beneficiaries updated", BeneficiariesUpdated(3, 10000, when)},
		{"contribution", ContributionRecorded(alice, uint256.MustFromDecimal("1000000000000000000"), "ipfs://bafy", when)},
		{"contribution without reference", ContributionRecorded(alice, uint256.NewInt(1), "", when)},
		{"withdrawn", Withdrawn(alice, uint256.NewInt(42), when)},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ev.Seq = uint64(i + 1)
			data, err := json.Marshal(tt.ev)
			require.NoError(t, err)

			var decoded Event
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.ev.Seq, decoded.Seq)
			assert.Equal(t, tt.ev.Kind, decoded.Kind)
			assert.True(t, tt.ev.Timestamp.Equal(decoded.Timestamp))
			assert.Equal(t, tt.ev.Account, decoded.Account)
			assert.Equal(t, tt.ev.Amount.Dec(), decoded.Amount.Dec())
			assert.Equal(t, tt.ev.Reference, decoded.Reference)
			assert.Equal(t, tt.ev.Count, decoded.Count)
			assert.Equal(t, tt.ev.TotalShares, decoded.TotalShares)
		})
	}
}

func TestEvent_JSONShape(t *testing.T) {
	ev := ContributionRecorded(alice, uint256.MustFromDecimal("1000000000000000000"), "ref-1", when)
	ev.Seq = 7
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"seq": 7,
		"kind": "ContributionRecorded",
		"timestamp": "2024-03-01T12:00:00Z",
		"account": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"amount": "1000000000000000000",
		"reference": "ref-1"
	}`, string(data))

	upd := BeneficiariesUpdated(2, 10000, when)
	data, err = json.Marshal(upd)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "account")
	assert.NotContains(t, string(data), "amount")
}

func TestEvent_UnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown kind", `{"seq":1,"kind":"Burned"}`, ErrUnknownKind},
		{"bad amount", `{"seq":1,"kind":"Withdrawn","amount":"-5"}`, ErrInvalidEvent},
		{"not json", `{`, ErrInvalidEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Event
			assert.ErrorIs(t, json.Unmarshal([]byte(tt.data), &e), tt.want)
		})
	}
}

func TestEvent_String(t *testing.T) {
	assert.Contains(t, BeneficiariesUpdated(2, 10000, when).String(), "count=2")
	assert.Contains(t, Withdrawn(alice, uint256.NewInt(9), when).String(), "amount=9")
}

func TestBus_DeliversInOrder(t *testing.T) {
	var bus Bus
	assert.Nil(t, bus.Last())

	ch := make(chan *Event, 8)
	last, closer := bus.Subscribe(ch)
	defer closer()
	assert.Nil(t, last)

	for i := uint64(1); i <= 3; i++ {
		ev := Withdrawn(alice, uint256.NewInt(i), when)
		ev.Seq = i
		bus.Publish(ev)
	}

	for i := uint64(1); i <= 3; i++ {
		select {
		case ev := <-ch:
			assert.Equal(t, i, ev.Seq)
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
	assert.Equal(t, uint64(3), bus.Last().Seq)
}
