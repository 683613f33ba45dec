package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catering-backend/pkg/enums"
	"github.com/angelmondragon/catering-backend/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventQuoteStatusChanged, 1, func(payload json.RawMessage) (any, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	output, err := reg.Decode(enums.EventQuoteStatusChanged, 1, json.RawMessage(`{"to":"booked"}`))
	require.NoError(t, err)
	outMap, ok := output.(map[string]string)
	require.True(t, ok)
	require.Equal(t, "booked", outMap["to"])

	_, err = reg.Decode(enums.EventQuoteStatusChanged, 2, json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestDomainDecodersDecodeInvoicePaid(t *testing.T) {
	reg := NewDomainDecoders()

	out, err := reg.Decode(enums.EventInvoicePaid, 1, json.RawMessage(`{"number":"INV-2026-0A1B2C3D","totalCents":812500,"isGovernment":true}`))
	require.NoError(t, err)
	paid, ok := out.(*payloads.InvoicePaidEvent)
	require.True(t, ok)
	require.Equal(t, int64(812500), paid.TotalCents)
	require.True(t, paid.IsGovernment)

	_, err = reg.Decode(enums.EventEstimateSendRequested, 1, json.RawMessage(`{}`))
	require.Error(t, err, "function requests never reach the domain topic")
}
