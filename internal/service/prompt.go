package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dscprotocol/assistant/internal/domain"
)

// PromptInput carries everything needed to assemble one completion prompt.
// Position and Params are only consulted in personalized mode.
type PromptInput struct {
	Context      string
	Question     string
	Personalized bool
	Position     domain.UserPosition
	Params       domain.ProtocolParams
}

// positionView is the user position with defaults applied. Sparse input is
// resolved into this struct once, at prompt-build time.
type positionView struct {
	Collateral      string
	CollateralValue float64
	BorrowedAmount  float64
	HealthFactor    float64
	CollateralAsset string
}

// paramsView is the protocol parameter block with defaults applied.
type paramsView struct {
	LiquidationThreshold float64
	MinHealthFactor      float64
	MaxHealthFactor      float64
}

func resolvePosition(pos domain.UserPosition) positionView {
	return positionView{
		Collateral:      amountOrUnknown(pos, "collateral"),
		CollateralValue: pos.Float("collateral_value", 0),
		BorrowedAmount:  pos.Float("borrowed_amount", 0),
		HealthFactor:    pos.Float("health_factor", 0),
		CollateralAsset: pos.String("collateral_asset", "Unknown"),
	}
}

func resolveParams(params domain.ProtocolParams) paramsView {
	return paramsView{
		LiquidationThreshold: params.Float("liquidation_threshold", 0.80),
		MinHealthFactor:      params.Float("min_health_factor", 1.0),
		MaxHealthFactor:      params.Float("max_health_factor", 999),
	}
}

// BuildPrompt assembles the bounded-instruction prompt: role preamble,
// documentation context, the position/params blocks in personalized mode, the
// verbatim user question, and the fixed instruction list.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("You are a helpful and knowledgeable assistant for a Sui stablecoin protocol. ")
	b.WriteString("Use the following protocol documentation to answer the user's question accurately.\n\n")
	b.WriteString("PROTOCOL DOCUMENTATION:\n")
	b.WriteString(in.Context)
	b.WriteString("\n\n")

	if in.Personalized {
		pos := resolvePosition(in.Position)
		params := resolveParams(in.Params)

		b.WriteString("CURRENT USER POSITION:\n")
		fmt.Fprintf(&b, "- Collateral: %s\n", pos.Collateral)
		fmt.Fprintf(&b, "- Collateral Value: %s\n", formatCurrency(pos.CollateralValue))
		fmt.Fprintf(&b, "- Borrowed Amount: %s\n", formatCurrency(pos.BorrowedAmount))
		fmt.Fprintf(&b, "- Current Health Factor: %.2f\n", pos.HealthFactor)
		fmt.Fprintf(&b, "- Collateral Asset: %s\n", pos.CollateralAsset)
		b.WriteString("\n")

		b.WriteString("CURRENT PROTOCOL PARAMETERS:\n")
		fmt.Fprintf(&b, "- Liquidation Threshold: %s\n", formatPercent(params.LiquidationThreshold))
		fmt.Fprintf(&b, "- Minimum Health Factor: %s\n", formatRatio(params.MinHealthFactor))
		fmt.Fprintf(&b, "- Maximum Health Factor: %s\n", formatRatio(params.MaxHealthFactor))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "USER QUESTION: %s\n\n", in.Question)

	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Answer based ONLY on the provided documentation\n")
	b.WriteString("2. Answer in no more than 5 sentences\n")
	b.WriteString("3. Provide specific numbers and actionable advice\n")
	b.WriteString("4. If recommending actions, calculate exact amounts needed\n")
	b.WriteString("5. Warn about risks when health factor is low (< 1.5)\n")
	b.WriteString("6. If you cannot find the answer in the documentation, say so\n")
	b.WriteString("7. Be concise but complete\n\n")
	b.WriteString("ANSWER:")

	return b.String()
}

// amountOrUnknown renders a field that may hold a number or a label.
func amountOrUnknown(pos domain.UserPosition, key string) string {
	raw, ok := pos[key]
	if !ok {
		return "Unknown"
	}
	if s, isString := raw.(string); isString {
		if s == "" {
			return "Unknown"
		}
		return s
	}
	return formatNumber(pos.Float(key, 0))
}

// formatCurrency renders a dollar amount with thousands separators and two
// decimals, e.g. 10000 -> "$10,000.00".
func formatCurrency(v float64) string {
	return "$" + formatNumber(v)
}

func formatNumber(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	parts := strings.SplitN(s, ".", 2)
	whole := parts[0]

	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String() + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}

// formatPercent renders a ratio as a whole percentage, e.g. 0.8 -> "80%".
func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// formatRatio renders a health-factor bound without trailing zeros.
func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
