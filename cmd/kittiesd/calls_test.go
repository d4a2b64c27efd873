package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/kitties-ledger-go/config"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/runtime"
	"github.com/AntonStoeckl/kitties-ledger-go/state/memorystate"
)

func Test_DecodeCall(t *testing.T) {
	testCases := []struct {
		name           string
		line           string
		expectedOrigin core.Origin
		expectedCall   runtime.Call
	}{
		{
			name:           "signed create",
			line:           `{"call":"create","signer":1}`,
			expectedOrigin: core.Signed(1),
			expectedCall:   runtime.CreateCall{},
		},
		{
			name:           "root create",
			line:           `{"call":"create","root":true}`,
			expectedOrigin: core.Root(),
			expectedCall:   runtime.CreateCall{},
		},
		{
			name:           "unsigned breed",
			line:           `{"call":"breed","parent_a":0,"parent_b":1}`,
			expectedOrigin: core.None(),
			expectedCall:   runtime.BreedCall{ParentA: 0, ParentB: 1},
		},
		{
			name:           "transfer",
			line:           `{"call":"transfer","signer":1,"recipient":2,"kitty_id":7}`,
			expectedOrigin: core.Signed(1),
			expectedCall:   runtime.TransferCall{Recipient: 2, KittyID: 7},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, origin, call, err := decodeCall([]byte(tc.line))

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.expectedOrigin, origin)
			assert.Equal(t, tc.expectedCall, call)
		})
	}
}

func Test_DecodeCall_When_TheLineIsInvalid_ThenItFails(t *testing.T) {
	testCases := []struct {
		name        string
		line        string
		expectedErr error
	}{
		{name: "unknown call", line: `{"call":"burn","signer":1}`, expectedErr: errUnknownCall},
		{name: "breed without parent", line: `{"call":"breed","signer":1,"parent_a":0}`, expectedErr: errMissingArgument},
		{name: "transfer without kitty", line: `{"call":"transfer","signer":1,"recipient":2}`, expectedErr: errMissingArgument},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, _, _, err := decodeCall([]byte(tc.line))

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_ServeCalls_RunsTheEndToEndScenario(t *testing.T) {
	// arrange
	ctx := context.Background()
	rt, err := runtime.New(ctx, memorystate.NewBackend(), runtime.WithClock(func() time.Time { return time.Unix(0, 0) }))
	require.NoError(t, err)

	in := strings.NewReader(strings.Join([]string{
		`{"call":"create","signer":1}`,
		`{"call":"create","signer":1}`,
		``,
		`{"call":"breed","signer":1,"parent_a":0,"parent_b":1}`,
		`{"call":"transfer","signer":1,"recipient":2,"kitty_id":0}`,
		`{"call":"transfer","signer":1,"recipient":3,"kitty_id":0}`,
		`not json`,
	}, "\n"))
	var out bytes.Buffer

	// act
	err = serveCalls(ctx, rt, in, &out)

	// assert
	require.NoError(t, err)
	responses := decodeResponses(t, out.String())
	require.Len(t, responses, 6)

	assertResponse(t, responses[0], 1, core.KittyCreatedEventType, 0)
	assertResponse(t, responses[1], 2, core.KittyCreatedEventType, 1)
	assertResponse(t, responses[2], 4, core.KittyBredEventType, 2)
	assertResponse(t, responses[3], 5, core.KittyTransferredEventType, 0)

	assert.False(t, responses[4].OK)
	assert.Contains(t, responses[4].Error, core.ErrNotOwner.Error())
	assert.False(t, responses[5].OK)
	assert.Equal(t, 7, responses[5].Line)

	owner, found, err := rt.KittyOwner(ctx, 0)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.AccountID(2), owner)
}

func Test_GenesisFrom_DecodesTheDNA(t *testing.T) {
	// arrange
	kitties := []config.GenesisKittyConfig{{Owner: 4, DNA: "ff000000000000000000000000000001"}}

	// act
	genesis := genesisFrom(kitties)

	// assert
	require.Len(t, genesis.Kitties, 1)
	assert.Equal(t, core.AccountID(4), genesis.Kitties[0].Owner)
	assert.Equal(t, core.Genome{0xff, 15: 0x01}, genesis.Kitties[0].DNA)
}

func decodeResponses(t *testing.T, output string) []callResponse {
	t.Helper()

	var responses []callResponse
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		var response callResponse
		require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(line), &response))
		responses = append(responses, response)
	}

	return responses
}

func assertResponse(t *testing.T, response callResponse, line int, eventType string, kittyID uint32) {
	t.Helper()

	assert.True(t, response.OK, "line %d: %s", line, response.Error)
	assert.Equal(t, line, response.Line)
	assert.Equal(t, eventType, response.EventType)
	require.NotNil(t, response.KittyID)
	assert.Equal(t, kittyID, *response.KittyID)
}
