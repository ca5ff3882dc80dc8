package stubserver

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

type entry struct {
	name     string
	category string
}

var vocabulary = []entry{
	{"apple", "fruit"}, {"avocado", "fruit"}, {"banana", "fruit"}, {"lemon", "fruit"},
	{"lime", "fruit"}, {"orange", "fruit"}, {"strawberry", "fruit"}, {"blueberry", "fruit"},
	{"tomato", "vegetable"}, {"potato", "vegetable"}, {"onion", "vegetable"}, {"garlic", "vegetable"},
	{"carrot", "vegetable"}, {"celery", "vegetable"}, {"spinach", "vegetable"}, {"lettuce", "vegetable"},
	{"broccoli", "vegetable"}, {"cauliflower", "vegetable"}, {"zucchini", "vegetable"}, {"cucumber", "vegetable"},
	{"bell pepper", "vegetable"}, {"mushroom", "vegetable"}, {"sweet potato", "vegetable"}, {"kale", "vegetable"},
	{"chicken breast", "protein"}, {"chicken thigh", "protein"}, {"ground beef", "protein"}, {"pork chop", "protein"},
	{"bacon", "protein"}, {"salmon", "protein"}, {"tuna", "protein"}, {"shrimp", "protein"},
	{"tofu", "protein"}, {"egg", "protein"}, {"chickpeas", "protein"}, {"black beans", "protein"},
	{"lentils", "protein"},
	{"milk", "dairy"}, {"butter", "dairy"}, {"cheese", "dairy"}, {"cheddar", "dairy"},
	{"mozzarella", "dairy"}, {"parmesan", "dairy"}, {"yogurt", "dairy"}, {"cream", "dairy"},
	{"rice", "grain"}, {"pasta", "grain"}, {"spaghetti", "grain"}, {"bread", "grain"},
	{"flour", "grain"}, {"oats", "grain"}, {"quinoa", "grain"}, {"tortilla", "grain"},
	{"olive oil", "pantry"}, {"soy sauce", "pantry"}, {"honey", "pantry"}, {"sugar", "pantry"},
	{"salt", "pantry"}, {"black pepper", "pantry"}, {"basil", "herb"}, {"cilantro", "herb"},
	{"parsley", "herb"}, {"thyme", "herb"}, {"rosemary", "herb"}, {"cumin", "spice"},
	{"paprika", "spice"}, {"cinnamon", "spice"}, {"ginger", "spice"},
}

type vocabNames []entry

func (v vocabNames) String(i int) string { return v[i].name }
func (v vocabNames) Len() int            { return len(v) }

func lookupEntry(name string) (entry, bool) {
	for _, e := range vocabulary {
		if e.name == name {
			return e, true
		}
	}
	return entry{}, false
}

// validation is the wire shape of a validation verdict
type validation struct {
	Original    string   `json:"original"`
	IsValid     bool     `json:"is_valid"`
	Corrected   *string  `json:"corrected"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
	Source      string   `json:"source"`
}

func validate(ingredient string) validation {
	query := strings.ToLower(strings.TrimSpace(ingredient))
	v := validation{Original: ingredient, Suggestions: []string{}, Source: "dictionary"}

	if e, ok := lookupEntry(query); ok {
		v.IsValid = true
		v.Confidence = 1
		v.Suggestions = append(v.Suggestions, e.name)
		return v
	}

	type candidate struct {
		name     string
		distance int
	}
	var near []candidate
	for _, e := range vocabulary {
		if d := levenshtein(query, e.name); d <= 2 {
			near = append(near, candidate{e.name, d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].distance < near[j].distance })

	for i, c := range near {
		if i == 3 {
			break
		}
		v.Suggestions = append(v.Suggestions, c.name)
	}
	if len(near) > 0 {
		best := near[0].name
		v.Corrected = &best
		v.Confidence = 1 - float64(near[0].distance)/float64(len([]rune(best))+1)
	}
	return v
}

// suggestion is the wire shape of an autocomplete entry
type suggestion struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func autocomplete(query string, limit int) []suggestion {
	query = strings.ToLower(strings.TrimSpace(query))
	out := []suggestion{}
	if query == "" || limit <= 0 {
		return out
	}

	seen := make(map[string]bool)
	for _, e := range vocabulary {
		if strings.HasPrefix(e.name, query) {
			out = append(out, suggestion{e.name, e.category})
			seen[e.name] = true
		}
	}
	for _, m := range fuzzy.FindFrom(query, vocabNames(vocabulary)) {
		e := vocabulary[m.Index]
		if !seen[e.name] {
			out = append(out, suggestion{e.name, e.category})
			seen[e.name] = true
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
