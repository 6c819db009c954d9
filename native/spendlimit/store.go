package spendlimit

import (
	"andromeda/native/common"
)

var (
	addressPrefix = []byte("spendlimit/address/")
	unifierKey    = []byte("spendlimit/unifier")
)

func addressKey(addr string) []byte {
	return append(append([]byte(nil), addressPrefix...), addr...)
}

type limitRecord struct {
	Denom     string
	Amount    uint64
	Remaining uint64
}

type paramsRecord struct {
	Address        string
	Cooldown       uint64
	PeriodType     string
	PeriodMultiple uint16
	Limits         []limitRecord
	USDCDenom      string
	HasUSDCDenom   bool
	Default        bool
	HasDefault     bool
}

type addressRecord struct {
	Params      *paramsRecord `rlp:"nil"`
	Beneficiary *paramsRecord `rlp:"nil"`
}

func toParamsRecord(p *PermissionedAddressParams) *paramsRecord {
	if p == nil {
		return nil
	}
	rec := &paramsRecord{
		Address:        p.Address,
		Cooldown:       p.Cooldown,
		PeriodType:     string(p.PeriodType),
		PeriodMultiple: p.PeriodMultiple,
		Limits:         make([]limitRecord, 0, len(p.SpendLimits)),
	}
	for _, l := range p.SpendLimits {
		rec.Limits = append(rec.Limits, limitRecord{Denom: l.Denom, Amount: l.Amount, Remaining: l.LimitRemaining})
	}
	if p.USDCDenom != nil {
		rec.USDCDenom, rec.HasUSDCDenom = *p.USDCDenom, true
	}
	if p.Default != nil {
		rec.Default, rec.HasDefault = *p.Default, true
	}
	return rec
}

func fromParamsRecord(rec *paramsRecord) *PermissionedAddressParams {
	if rec == nil {
		return nil
	}
	p := &PermissionedAddressParams{
		Address:        rec.Address,
		Cooldown:       rec.Cooldown,
		PeriodType:     common.PeriodType(rec.PeriodType),
		PeriodMultiple: rec.PeriodMultiple,
		SpendLimits:    make([]CoinLimit, 0, len(rec.Limits)),
	}
	for _, l := range rec.Limits {
		p.SpendLimits = append(p.SpendLimits, CoinLimit{Denom: l.Denom, Amount: l.Amount, LimitRemaining: l.Remaining})
	}
	if rec.HasUSDCDenom {
		denom := rec.USDCDenom
		p.USDCDenom = &denom
	}
	if rec.HasDefault {
		def := rec.Default
		p.Default = &def
	}
	return p
}

func (e *Engine) load(addr string) (PermissionedAddress, bool, error) {
	var rec addressRecord
	ok, err := e.state.KVGet(addressKey(addr), &rec)
	if err != nil || !ok {
		return PermissionedAddress{}, ok, err
	}
	return PermissionedAddress{
		Params:            fromParamsRecord(rec.Params),
		BeneficiaryParams: fromParamsRecord(rec.Beneficiary),
	}, true, nil
}

func (e *Engine) store(p PermissionedAddress) error {
	return e.state.KVPut(addressKey(p.Address()), addressRecord{
		Params:      toParamsRecord(p.Params),
		Beneficiary: toParamsRecord(p.BeneficiaryParams),
	})
}
