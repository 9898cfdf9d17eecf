package advice

import (
	"strconv"
	"strings"

	"github.com/edgard/finadvisor/internal/profile"
)

// SystemInstruction is sent as the system turn of every advice request.
const SystemInstruction = "You are a helpful financial advisor providing educational guidance. Be clear, concise, and actionable."

// unknownAge stands in for an age the user did not supply.
const unknownAge = "--"

const promptHeader = "You are a financial advisor helping someone understand their financial situation.\n\nProfile:\n"

const promptInstructions = `
Provide personalized financial advice covering:
1. Retirement planning assessment
2. Investment allocation feedback
3. Emergency fund adequacy
4. Any specific recommendations based on their situation

Keep the advice clear, actionable, and educational.`

// BuildPrompt renders the user turn for p. The output depends only on p.
func BuildPrompt(p profile.Profile) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)

	writeLine(&sb, "Age", formatAge(p.Age()))
	writeLine(&sb, "Target retirement age", formatAge(p.TargetRetirementAge()))
	writeLine(&sb, "Annual income", profile.FormatCurrency(p.Income()))
	writeLine(&sb, "Cash/emergency savings", profile.FormatCurrency(p.CashSavings()))
	writeLine(&sb, "Brokerage/stocks/ETFs", profile.FormatCurrency(p.Investments()))
	writeLine(&sb, "Retirement accounts (401k, IRA, etc.)", profile.FormatCurrency(p.RetirementAccounts()))
	// The kids' line slot stays as an empty line when there is nothing to show.
	if kids := p.KidsAges(); kids != "" {
		writeLine(&sb, "Kids' ages", kids)
	} else {
		sb.WriteByte('\n')
	}

	sb.WriteString(promptInstructions)
	return sb.String()
}

func writeLine(sb *strings.Builder, label, value string) {
	sb.WriteString("- ")
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteByte('\n')
}

func formatAge(age int, ok bool) string {
	if !ok {
		return unknownAge
	}
	return strconv.Itoa(age)
}
