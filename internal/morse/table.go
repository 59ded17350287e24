package morse

// codes maps uppercase characters to their dot/dash code.
// Never mutated after package initialization.
var codes = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..",
	'E': ".", 'F': "..-.", 'G': "--.", 'H': "....",
	'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.",
	'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--",
	'4': "....-", '5': ".....", '6': "-....", '7': "--...",
	'8': "---..", '9': "----.",
	'.': ".-.-.-", ',': "--..--", '?': "..--..", '/': "-..-.",
	'&': ".-...", '(': "-.--.", ')': "-.--.-", '+': ".-.-.",
	'=': "-...-", '@': ".--.-.", ':': "---...", '\'': ".----.",
	'"': ".-..-.", '!': "-.-.--", '-': "-...-",
	' ': "/",
	// Line breaks carry no code and are dropped from both transcript and audio.
	'\n': "",
	'\r': "",
}

// Table is a read-only view of the character to code mapping
type Table struct{}

// Standard is the shared international Morse table
var Standard Table

// Code returns the dot/dash code for an uppercase character.
// ok is false when the character has no mapping; an empty code with ok
// set means the character is known but silent.
func (Table) Code(r rune) (code string, ok bool) {
	code, ok = codes[r]
	return code, ok
}

// Len returns the number of mapped characters
func (Table) Len() int {
	return len(codes)
}

// ToUpper upper-cases ASCII letters only; every other rune is returned as-is
func ToUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
