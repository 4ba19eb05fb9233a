package scene

// Preset tokens arrive as callback data from inline keyboards, so they are
// already normalized. Variants are alternative phrasings of the same scene,
// one is picked at random per request.
var defaultPresets = map[string]preset{
	"scene:beach": {
		label: "Пляж 🏖",
		variants: []string{
			"on a tropical beach at golden hour, walking barefoot along the surf line",
			"relaxing on a white sand beach under palm trees, turquoise ocean behind",
			"standing at the water's edge on a sunlit beach, gentle waves around the ankles",
		},
	},
	"scene:cafe": {
		label: "Кафе ☕",
		variants: []string{
			"sitting at a cozy street cafe with a cup of coffee, soft morning light",
			"at a small round table outside a Parisian-style cafe, croissant and latte in front",
		},
	},
	"scene:mountains": {
		label: "Горы 🏔",
		variants: []string{
			"standing on a mountain ridge above the clouds at sunrise",
			"hiking along an alpine trail, snow-capped peaks in the distance",
		},
	},
	"scene:city": {
		label: "Город 🌆",
		variants: []string{
			"walking down a lively city street in the evening, neon signs glowing",
			"crossing a wide avenue in a modern downtown, skyscrapers rising behind",
		},
	},
	"scene:office": {
		label: "Офис 💼",
		variants: []string{
			"in a bright modern office, standing by a floor-to-ceiling window",
			"working at a tidy desk in a stylish office, city view through the glass",
		},
	},
}

var defaultPresetOrder = []string{
	"scene:beach",
	"scene:cafe",
	"scene:mountains",
	"scene:city",
	"scene:office",
}

// Keyword groups are scanned in priority order, first substring match wins.
// Russian stems cover inflected forms ("мальдивах", "пляже").
var defaultKeywordGroups = []keywordGroup{
	{
		keywords: []string{"пляж", "море", "океан", "мальдив", "beach", "ocean", "sea", "maldives"},
		summary:  "on a sunlit tropical beach by the ocean, waves rolling onto white sand",
	},
	{
		keywords: []string{"кафе", "кофе", "cafe", "coffee"},
		summary:  "at a cozy cafe table with a cup of coffee, warm ambient light",
	},
	{
		// "гора/горы/горах" stems are listed in full so that "город" does not match
		keywords: []string{"горы", "горах", "гора", "вершин", "mountain", "alps", "hiking"},
		summary:  "high in the mountains with dramatic peaks and open sky behind",
	},
	{
		keywords: []string{"город", "улиц", "city", "street", "downtown"},
		summary:  "on a vibrant city street among modern buildings and evening lights",
	},
	{
		keywords: []string{"офис", "работ", "office", "work"},
		summary:  "in a bright contemporary office with large windows and clean lines",
	},
}
