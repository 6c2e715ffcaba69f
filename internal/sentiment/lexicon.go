package sentiment

// defaultWeights follows the AFINN scale of -5 to +5.
var defaultWeights = map[string]int{
	"amazing":      4,
	"appreciate":   2,
	"appreciated":  2,
	"awesome":      4,
	"best":         3,
	"excellent":    3,
	"fantastic":    4,
	"fast":         1,
	"fixed":        1,
	"glad":         3,
	"good":         3,
	"great":        3,
	"happy":        3,
	"helpful":      2,
	"nice":         3,
	"perfect":      3,
	"pleased":      3,
	"polite":       2,
	"prompt":       1,
	"quick":        1,
	"quickly":      1,
	"resolved":     1,
	"satisfied":    2,
	"solved":       1,
	"thank":        2,
	"thanks":       2,
	"wonderful":    4,
	"angry":        -3,
	"annoyed":      -2,
	"awful":        -3,
	"bad":          -3,
	"broken":       -1,
	"careless":     -2,
	"delay":        -1,
	"delayed":      -1,
	"disappointed": -2,
	"disgusting":   -3,
	"dirty":        -2,
	"fail":         -2,
	"failed":       -2,
	"frustrated":   -2,
	"hate":         -3,
	"horrible":     -3,
	"ignored":      -2,
	"incompetent":  -2,
	"lazy":         -1,
	"poor":         -2,
	"rude":         -2,
	"sad":          -2,
	"slow":         -2,
	"terrible":     -3,
	"unacceptable": -2,
	"unhappy":      -2,
	"useless":      -2,
	"waste":        -1,
	"worse":        -3,
	"worst":        -3,
}
