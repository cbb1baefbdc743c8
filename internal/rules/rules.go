// Package rules implements the deterministic preliminary-diagnosis engine.
//
// The engine walks a fixed, ordered table of (plant, required symptoms,
// disease name) rules and returns the disease of the first rule whose plant
// matches and whose required symptoms are all present in the observed set.
// Evaluation short-circuits: rule order encodes precedence, so specific
// multi-symptom rules must be listed before broader fallbacks for the same
// plant. The winning disease name is resolved to a catalog identity through
// a caller-supplied Resolver; a name with no catalog entry counts as no
// match rather than an error.
//
// The engine is a pure function over its inputs: no I/O, no hidden state,
// identical results for identical (plant, symptoms) pairs.
package rules

// Rule maps a plant and a required symptom subset to a candidate disease
// name. All SymptomIDs must be present in the observed set for the rule to
// fire.
type Rule struct {
	PlantID    uint
	SymptomIDs []uint
	Disease    string
}

// Resolver maps a disease name to its catalog identifier. It reports false
// when the name is unknown, which the engine treats as "no match".
type Resolver func(name string) (uint, bool)

// Default is the built-in rule table, ordered by precedence. Within each
// plant, narrower multi-symptom rules precede single-symptom fallbacks.
//
// Symptom ids refer to the seeded catalog: 1 Leaf Spot, 2 Wilting,
// 3 Yellowing Leaves, 4 Stem Rot, 5 Fruit Lesions, 6 Rust Spots,
// 7 Powdery Mildew, 8 Mosaic Pattern. Plant ids: 1 Tomato, 2 Potato,
// 3 Corn, 4 Cucumber.
var Default = []Rule{
	// Tomato
	{PlantID: 1, SymptomIDs: []uint{1, 2}, Disease: "Early Blight"},
	{PlantID: 1, SymptomIDs: []uint{1, 5}, Disease: "Late Blight"},
	{PlantID: 1, SymptomIDs: []uint{2, 3}, Disease: "Fusarium Wilt"},
	{PlantID: 1, SymptomIDs: []uint{7}, Disease: "Powdery Mildew"},

	// Potato
	{PlantID: 2, SymptomIDs: []uint{1, 2}, Disease: "Early Blight"},
	{PlantID: 2, SymptomIDs: []uint{1, 4}, Disease: "Late Blight"},
	{PlantID: 2, SymptomIDs: []uint{7}, Disease: "Powdery Mildew"},

	// Corn: the specific rust rule precedes the broad yellowing fallback,
	// which maps general yellowing to Early Blight as in the field guide.
	{PlantID: 3, SymptomIDs: []uint{6, 3}, Disease: "Corn Common Rust"},
	{PlantID: 3, SymptomIDs: []uint{3}, Disease: "Early Blight"},

	// Cucumber
	{PlantID: 4, SymptomIDs: []uint{8, 2}, Disease: "Cucumber Mosaic Virus"},
	{PlantID: 4, SymptomIDs: []uint{7}, Disease: "Powdery Mildew"},
}

// Engine evaluates an ordered rule table against observed symptoms.
type Engine struct {
	rules   []Rule
	resolve Resolver
}

// NewEngine returns an Engine over the given table. A nil table selects
// Default. The resolver is consulted only for the winning rule.
func NewEngine(table []Rule, resolve Resolver) *Engine {
	if table == nil {
		table = Default
	}
	return &Engine{rules: table, resolve: resolve}
}

// Evaluate returns the catalog id of the preliminary disease guess for the
// given plant and observed symptom ids, or nil when no rule matches or the
// winning rule's disease name is not in the catalog. Duplicate observed ids
// are harmless; the subset test only asks for presence.
func (e *Engine) Evaluate(plantID uint, observed []uint) *uint {
	name, ok := e.EvaluateName(plantID, observed)
	if !ok {
		return nil
	}
	id, ok := e.resolve(name)
	if !ok {
		return nil
	}
	return &id
}

// EvaluateName returns the disease name of the first matching rule, before
// catalog resolution. It reports false when no rule matches.
func (e *Engine) EvaluateName(plantID uint, observed []uint) (string, bool) {
	seen := make(map[uint]struct{}, len(observed))
	for _, id := range observed {
		seen[id] = struct{}{}
	}
	for _, r := range e.rules {
		if r.PlantID != plantID {
			continue
		}
		if containsAll(seen, r.SymptomIDs) {
			return r.Disease, true
		}
	}
	return "", false
}

// containsAll reports whether every id in required is present in seen.
func containsAll(seen map[uint]struct{}, required []uint) bool {
	for _, id := range required {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}
