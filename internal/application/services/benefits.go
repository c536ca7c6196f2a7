package services

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
)

// benefitGroups maps each loyalty benefit to the hrc flags that grant it.
var benefitGroups = []struct {
	Benefit string
	Flags   []string
}{
	{"has_first_order_discount", []string{
		"descue_primera_azul", "descue_primera_celeste", "descue_primera_turquesa",
		"descue_primera_lila", "descue_primera_rosa", "descue_primera_magenta",
	}},
	{"has_bono", []string{"acumuladas_rosa", "acumuladas_magenta", "acumuladas_lila"}},
	{"has_onedollar", []string{
		"realiza3compras", "realiza3compras_rosa", "realiza3compras_celeste",
		"realiza3compras_magenta", "realiza3compras_azul", "realiza3compras_lila",
	}},
	{"has_pay10take11", []string{
		"compra10_lleva11", "compra10_lleva11_lila", "compra10_lleva11_rosa", "compra10_lleva11_magenta",
	}},
	{"has_free_shipping", []string{"envio_gratis_25_descuento"}},
}

type benefitRule struct {
	benefit string
	program *vm.Program
}

// BenefitEvaluator computes the benefit summary of a customer from its
// hrc flags. Each benefit is an expression over the flags.
type BenefitEvaluator struct {
	rules []benefitRule
	flags []string
}

// NewBenefitEvaluator compiles the benefit rules
func NewBenefitEvaluator() (*BenefitEvaluator, error) {
	env := map[string]interface{}{}
	var flags []string
	for _, group := range benefitGroups {
		for _, flag := range group.Flags {
			if _, ok := env[flag]; !ok {
				env[flag] = false
				flags = append(flags, flag)
			}
		}
	}

	e := &BenefitEvaluator{flags: flags}
	for _, group := range benefitGroups {
		source := strings.Join(group.Flags, " || ")
		program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile benefit %s: %w", group.Benefit, err)
		}
		e.rules = append(e.rules, benefitRule{benefit: group.Benefit, program: program})
	}
	return e, nil
}

// Flags lists every hrc flag the rules read.
func (e *BenefitEvaluator) Flags() []string {
	return append([]string(nil), e.flags...)
}

// Evaluate returns benefit name to granted. Missing or non-boolean flags count as false.
func (e *BenefitEvaluator) Evaluate(hrc models.HrcFlags) (map[string]bool, error) {
	env := make(map[string]interface{}, len(e.flags))
	for _, flag := range e.flags {
		env[flag] = hrc.Bool(flag)
	}

	out := make(map[string]bool, len(e.rules))
	for _, rule := range e.rules {
		result, err := expr.Run(rule.program, env)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate benefit %s: %w", rule.benefit, err)
		}
		granted, _ := result.(bool)
		out[rule.benefit] = granted
	}
	return out, nil
}
