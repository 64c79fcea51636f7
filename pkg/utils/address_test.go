package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "lowercase with prefix",
			input: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
			want:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		},
		{
			name:  "uppercase without prefix",
			input: "A0B86991C6218B36C1D19D4A2E9EB0CE3606EB48",
			want:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		},
		{
			name:  "already checksummed",
			input: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
			want:  "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "0x1234", wantErr: true},
		{name: "invalid hex", input: "0xZZb86991c6218b36c1d19d4a2e9eb0ce3606eb48", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAddress(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestShortAddress(t *testing.T) {
	require.Equal(t, "0xA0b8...eB48", ShortAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"))
	require.Equal(t, "0x1234", ShortAddress("0x1234"))
	require.Equal(t, "", ShortAddress(""))
}
