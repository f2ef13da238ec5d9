package calculator

// jokes maps the expressions too simple to need a calculator to the
// message shown when one is evaluated.
var jokes = map[string]string{
	"1+1":  "Wow, that's some advanced math! 🤓",
	"2*2":  "Genius! Did you need a calculator for that? 😏",
	"3-3":  "Zero! You must be so proud. 🙃",
	"4/2":  "Dividing by 2? Impressive. 😆",
	"5+0":  "Adding zero, huh? Bold move. 😜",
	"6-0":  "Subtracting nothing, classic. 😅",
	"0*7":  "Multiplying by zero, risky! 😂",
	"8/1":  "Dividing by one, next-level stuff. 😏",
	"9-9":  "Another zero, you math wizard! 🧙‍♂️",
	"10/2": "You cracked the code! 🥸",
}

// Joke returns the mock message for expr, if any.
func Joke(expr string) (string, bool) {
	msg, ok := jokes[expr]
	return msg, ok
}
