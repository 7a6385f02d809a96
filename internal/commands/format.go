package commands

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// number renders v in the shortest form that round-trips: 21, 21.5, 4.25.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// decimalComma renders v with a Swedish decimal comma.
func decimalComma(v float64) string {
	return strings.Replace(number(v), ".", ",", 1)
}

// kilowatts converts watts to a decimal-comma kilowatt figure.
func kilowatts(watts float64) string {
	return decimalComma(watts / 1000)
}

// mil converts kilometres to Swedish mil (10 km), rounded.
func mil(km float64) string {
	return number(math.Round(km / 10))
}

func plural(n int, one, many string) string {
	if n > 1 {
		return fmt.Sprintf("%d %s", n, many)
	}
	return fmt.Sprintf("%d %s", n, one)
}

// chargeTimeText phrases a remaining charge time given in minutes.
// Parts that are zero are left out.
func chargeTimeText(minutes *int) string {
	if minutes == nil || *minutes <= 0 {
		return "Jag vet inte..."
	}

	h := *minutes / 60
	m := *minutes % 60

	var b strings.Builder
	b.WriteString("Det är ungefär ")
	if h > 0 {
		b.WriteString(plural(h, "timme", "timmar"))
	}
	if m > 0 {
		if h > 0 {
			b.WriteString(" och ")
		}
		b.WriteString(plural(m, "minut", "minuter"))
	}
	b.WriteString(" kvar.")
	return b.String()
}

// climate is the direction a start-hvac utterance asks for.
type climate int

const (
	climateNeutral climate = iota
	climateHeating
	climateCooling
)

// classifyClimate looks for the Swedish stems for warming and cooling.
// Warming wins when both appear.
func classifyClimate(query string) climate {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "värm"):
		return climateHeating
	case strings.Contains(q, "kyl"):
		return climateCooling
	default:
		return climateNeutral
	}
}

// Default cabin targets in degrees Celsius.
const (
	defaultHeatingTemp = 26
	defaultCoolingTemp = 18
	defaultNeutralTemp = 21
)

func (c climate) defaultTemperature() float64 {
	switch c {
	case climateHeating:
		return defaultHeatingTemp
	case climateCooling:
		return defaultCoolingTemp
	default:
		return defaultNeutralTemp
	}
}

func (c climate) confirmation(temp float64) string {
	t := number(temp)
	switch c {
	case climateHeating:
		return "Ok, jag sätter igång värmaren tills det är " + t + " grader i bilen!"
	case climateCooling:
		return "Fixar det, jag börjar kyla ner till " + t + " grader!"
	default:
		return "Inga problem, jag sätter temperaturen på " + t + " grader!"
	}
}
