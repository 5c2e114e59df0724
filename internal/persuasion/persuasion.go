// Package persuasion selects persuasive message bundles from a fixed rule
// table. Selection is a pure function of the caller-supplied context and
// static seed data; nothing here mutates state.
package persuasion

// Category is one of the seven persuasion principles the rule table covers.
type Category string

const (
	SocialProof Category = "social-proof"
	Scarcity    Category = "scarcity"
	Authority   Category = "authority"
	Reciprocity Category = "reciprocity"
	Commitment  Category = "commitment"
	Liking      Category = "liking"
	Consensus   Category = "consensus"
)

// Categories lists every category in evaluation order.
func Categories() []Category {
	return []Category{SocialProof, Scarcity, Authority, Reciprocity, Commitment, Liking, Consensus}
}

// Context is the input to trigger selection.
type Context struct {
	Page              string
	TimeOnSiteSeconds int
	PriorInteractions int
	ReturnVisitor     bool
}

// Result is one applicable trigger with its chosen message.
type Result struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// Seed counts quoted in messages. Static product copy, not live data.
var (
	socialProofMessages = []string{
		"Join 15,420 members already transforming their lives",
		"15,420 people started their journey with us this year",
		"Trusted by a community of 15,420 and growing",
	}
	scarcityMessages = []string{
		"Only 7 coaching spots left this month",
		"Enrollment closes in 48 hours",
	}
	authorityMessages = []string{
		"Built on 12 years of certified coaching experience",
		"Methods featured in leading personal-development publications",
	}
	reciprocityMessages = []string{
		"Grab your free goal-setting workbook before you go",
		"Here's a free self-assessment, no signup needed",
	}
	commitmentMessages = []string{
		"You've already taken the first steps. Keep the momentum going",
		"Pick one small goal for this week and we'll hold you to it",
	}
	likingMessages = []string{
		"Welcome back! We saved your progress",
		"Good to see you again. Ready to pick up where you left off?",
	}
	consensusMessages = []string{
		"9 out of 10 members recommend the starter program",
		"Most visitors on this page book a free assessment",
	}
)

// SelectTriggers evaluates every category gate against ctx and returns the
// applicable triggers in fixed category order.
func SelectTriggers(ctx Context) []Result {
	var results []Result
	for _, category := range Categories() {
		if !applicable(category, ctx) {
			continue
		}
		results = append(results, Result{
			Category: category,
			Message:  pickMessage(category, ctx),
		})
	}
	return results
}

// applicable is the per-category boolean gate.
func applicable(category Category, ctx Context) bool {
	switch category {
	case SocialProof:
		return true
	case Scarcity:
		return ctx.Page == "pricing" || ctx.Page == "register" || ctx.TimeOnSiteSeconds > 120
	case Authority:
		return ctx.PriorInteractions == 0 || ctx.Page == "about" || ctx.Page == "home"
	case Reciprocity:
		return ctx.TimeOnSiteSeconds > 60
	case Commitment:
		return ctx.PriorInteractions >= 3
	case Liking:
		return ctx.ReturnVisitor
	case Consensus:
		return ctx.PriorInteractions >= 1 || ctx.TimeOnSiteSeconds > 300
	default:
		return false
	}
}

// pickMessage chooses deterministically from the category's pool so the
// same context always yields the same copy.
func pickMessage(category Category, ctx Context) string {
	pool := messagePool(category)
	index := (ctx.TimeOnSiteSeconds/60 + ctx.PriorInteractions) % len(pool)
	return pool[index]
}

func messagePool(category Category) []string {
	switch category {
	case SocialProof:
		return socialProofMessages
	case Scarcity:
		return scarcityMessages
	case Authority:
		return authorityMessages
	case Reciprocity:
		return reciprocityMessages
	case Commitment:
		return commitmentMessages
	case Liking:
		return likingMessages
	default:
		return consensusMessages
	}
}
