package models

import (
	"fmt"

	"github.com/imdario/mergo"
)

// HrcFlags is the loyalty sub-document: benefit flags, t-coin counters
// and the customer insignia.
type HrcFlags map[string]interface{}

// Merge returns a copy of h with every key present in update overwritten.
// Keys absent from update keep their stored value.
func (h HrcFlags) Merge(update HrcFlags) (HrcFlags, error) {
	merged := make(map[string]interface{}, len(h)+len(update))
	for k, v := range h {
		merged[k] = v
	}
	src := map[string]interface{}(update)
	if err := mergo.Merge(&merged, src, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge hrc flags: %w", err)
	}
	return HrcFlags(merged), nil
}

// Bool reads a flag; missing or non-boolean values are false.
func (h HrcFlags) Bool(name string) bool {
	v, ok := h[name].(bool)
	return ok && v
}

// TCoinsUpdate carries the t-coin counters a client may change, keyed by
// their ERP names. Nil fields are left untouched.
type TCoinsUpdate struct {
	Ganados     *float64 `json:"custentity_hrc_total_tcoins_ganados"`
	Disponibles *float64 `json:"custentity_hrc_tcoins_disponibles"`
	Gastados    *float64 `json:"custentity_hrc_tcoins_gastados"`
	Perdidos    *float64 `json:"custentity_hrc_tcoins_perdidos"`
}

// Flags converts the present counters into an hrc update.
func (u TCoinsUpdate) Flags() HrcFlags {
	flags := HrcFlags{}
	if u.Ganados != nil {
		flags["tcoins_ganados"] = *u.Ganados
	}
	if u.Disponibles != nil {
		flags["tcoins_disponibles"] = *u.Disponibles
	}
	if u.Gastados != nil {
		flags["tcoins_gastados"] = *u.Gastados
	}
	if u.Perdidos != nil {
		flags["tcoins_perdidos"] = *u.Perdidos
	}
	return flags
}
