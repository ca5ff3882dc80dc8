package session

// pantry is the pool random ingredient suggestions are drawn from.
var pantry = []string{
	"apple", "avocado", "bacon", "banana", "basil", "bell pepper",
	"black beans", "broccoli", "butter", "carrot", "cauliflower", "cheddar",
	"chicken breast", "chickpeas", "chili flakes", "cilantro", "coconut milk",
	"corn", "cucumber", "cumin", "eggs", "feta", "garlic", "ginger",
	"ground beef", "honey", "kale", "lemon", "lentils", "lime", "mozzarella",
	"mushrooms", "oats", "olive oil", "onion", "paprika", "parmesan",
	"pasta", "peanut butter", "peas", "potato", "quinoa", "rice", "salmon",
	"shrimp", "soy sauce", "spinach", "sweet potato", "tofu", "tomato",
	"tortillas", "tuna", "yogurt", "zucchini",
}
