package pricing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// curveDiscriminator is the 8-byte account tag identifying bonding-curve
// state accounts. Reads that do not start with it are rejected.
var curveDiscriminator = []byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60}

// curveAccountSize is the minimum account length: discriminator, five u64
// reserve fields, and the completion flag byte.
const curveAccountSize = 8 + 5*8 + 1

const (
	solDecimals   = 9
	tokenDecimals = 6
)

// DecodeCurveAccount parses raw bonding-curve account bytes into reserves.
// Layout: 8-byte discriminator, then five little-endian u64 fields (virtual
// token reserves, virtual SOL reserves, real token reserves, real SOL
// reserves, token total supply), then one completion byte.
func DecodeCurveAccount(data []byte) (domain.CurveReserves, error) {
	if len(data) < curveAccountSize {
		return domain.CurveReserves{}, fmt.Errorf("pricing: account data too short (%d bytes): %w", len(data), domain.ErrInvalidAccountData)
	}
	if !bytes.Equal(data[:8], curveDiscriminator) {
		return domain.CurveReserves{}, fmt.Errorf("pricing: discriminator mismatch: %w", domain.ErrInvalidAccountData)
	}
	return domain.CurveReserves{
		VirtualTokenReserves: binary.LittleEndian.Uint64(data[0x08:]),
		VirtualSolReserves:   binary.LittleEndian.Uint64(data[0x10:]),
		RealTokenReserves:    binary.LittleEndian.Uint64(data[0x18:]),
		RealSolReserves:      binary.LittleEndian.Uint64(data[0x20:]),
		TokenTotalSupply:     binary.LittleEndian.Uint64(data[0x28:]),
		Complete:             data[0x30] != 0,
	}, nil
}

// CurvePrice returns the spot price in SOL per token implied by the virtual
// reserves, computed in decimal arithmetic to avoid float drift on large
// lamport values. Returns ErrPoolUnusable when either virtual reserve is zero.
func CurvePrice(r domain.CurveReserves) (decimal.Decimal, error) {
	if r.VirtualTokenReserves == 0 || r.VirtualSolReserves == 0 {
		return decimal.Zero, fmt.Errorf("pricing: zero virtual reserves: %w", domain.ErrPoolUnusable)
	}
	sol := fromUint64(r.VirtualSolReserves).Shift(-solDecimals)
	tok := fromUint64(r.VirtualTokenReserves).Shift(-tokenDecimals)
	return sol.DivRound(tok, 18), nil
}

// CurvePriceFloat is CurvePrice collapsed to float64 for callers feeding the
// float-based comparison layer.
func CurvePriceFloat(r domain.CurveReserves) (float64, error) {
	p, err := CurvePrice(r)
	if err != nil {
		return 0, err
	}
	f, _ := p.Float64()
	return f, nil
}

// fromUint64 converts via big.Int so values above math.MaxInt64 survive.
func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
