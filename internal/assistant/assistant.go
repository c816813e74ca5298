package assistant

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"pal/internal/domain"
)

// Category is the intent bucket a message is routed into. It is
// derived per message, never stored.
type Category string

const (
	CategorySales   Category = "sales"
	CategoryExpense Category = "expense"
	CategoryProfit  Category = "profit"
	CategoryProject Category = "project"
	CategoryTip     Category = "tip"
	CategoryUnknown Category = "unknown"
)

// Source supplies uniform random draws in [0,1). Injected so tests can
// pin the numeric synthesis.
type Source interface {
	Float64() float64
}

type mathSource struct{}

func (mathSource) Float64() float64 { return rand.Float64() }

// Reply is the structured result of processing one message.
type Reply struct {
	Text             string                   `json:"text"`
	SuggestedActions []domain.SuggestedAction `json:"suggested_actions,omitempty"`
}

// Engine is the rule-based conversational response engine. It is
// stateless: every call classifies the message and synthesizes a fresh
// canned or templated reply.
type Engine struct {
	Rand Source
	Now  func() time.Time
}

func New() Engine {
	return Engine{Rand: mathSource{}, Now: time.Now}
}

// keyword routing table, tested in order; first match wins. A message
// holding both a sales and an expense keyword resolves to sales.
var keywordTable = []struct {
	category Category
	keywords []string
}{
	{CategorySales, []string{"sale", "revenue", "income"}},
	{CategoryExpense, []string{"expense", "spending", "cost"}},
	{CategoryProfit, []string{"profit", "margin", "earning"}},
	{CategoryProject, []string{"project", "client", "work"}},
	{CategoryTip, []string{"tip", "advice", "help"}},
}

// Classify routes a message to its intent category via case-insensitive
// substring scan over the ordered keyword table.
func Classify(message string) Category {
	lower := strings.ToLower(message)
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return CategoryUnknown
}

const fallbackReply = "I dey here to help your business grow. You fit ask me about your sales, expenses, profits, or projects. Or tell me what you need help with today."

// Process classifies the message and returns a reply plus quick
// actions for the matched context. Total over all text input; callers
// route empty messages to Greeting instead.
func (e Engine) Process(message string) Reply {
	switch Classify(message) {
	case CategorySales:
		return Reply{Text: e.salesReply(), SuggestedActions: SuggestedActions("sales")}
	case CategoryExpense:
		return Reply{Text: e.expenseReply(), SuggestedActions: SuggestedActions("expense")}
	case CategoryProfit:
		return Reply{Text: e.profitReply(), SuggestedActions: SuggestedActions("default")}
	case CategoryProject:
		return Reply{Text: e.projectReply(), SuggestedActions: SuggestedActions("project")}
	case CategoryTip:
		return Reply{Text: e.businessTip(), SuggestedActions: SuggestedActions("default")}
	default:
		return Reply{Text: fallbackReply, SuggestedActions: SuggestedActions("default")}
	}
}

// Greeting returns the time-of-day greeting. Callers use it for empty
// input instead of Process.
func (e Engine) Greeting() string {
	hour := e.now().Hour()
	switch {
	case hour < 12:
		return "Good morning boss! Ready to crush it today?"
	case hour < 17:
		return "Afternoon! How business dey move?"
	default:
		return "Evening boss! Let's check how we performed today."
	}
}

var welcomeGreetings = []string{
	"Hey boss! How your business dey today?",
	"Good to see you again! Ready to make some money today?",
	"Welcome back! Your business don dey miss you o.",
	"Oga at the top! How we dey perform today?",
	"Hey! PAL don dey here to help you succeed.",
}

// WelcomeGreeting picks one of the canned conversation openers.
func (e Engine) WelcomeGreeting() string {
	return welcomeGreetings[e.intn(len(welcomeGreetings))]
}

var insights = []string{
	"You dey try sha! Your sales don increase by 12% this week.",
	"Hmm, expenses dey climb small. Make we check where the money dey go?",
	"Your top product don sell well today. E be like say customers like am well-well!",
	"You get one new project wey fit bring good money. Make we plan am well.",
	"Your business dey grow steady. Small-small, we go reach the top!",
}

// Insight picks one of the canned business insights.
func (e Engine) Insight() string {
	return insights[e.intn(len(insights))]
}

func (e Engine) salesReply() string {
	amount := e.intn(50000) + 10000
	change := e.intn(15) + 1
	positive := e.rand().Float64() > 0.3
	if positive {
		return fmt.Sprintf("You don make ₦%s in sales today! That's %d%% up from yesterday. You dey do well, boss! 🚀", humanize.Comma(int64(amount)), change)
	}
	return fmt.Sprintf("Sales today na ₦%s, which is %d%% down from yesterday. No worry, tomorrow go better! 💪🏾", humanize.Comma(int64(amount)), change)
}

var expenseCategories = []string{"marketing", "inventory", "staff", "rent", "utilities"}

func (e Engine) expenseReply() string {
	amount := e.intn(30000) + 5000
	category := expenseCategories[e.intn(len(expenseCategories))]
	return fmt.Sprintf("Your expenses today reach ₦%s. Your biggest spending na for %s. You want make I show you where you fit cut costs?", humanize.Comma(int64(amount)), category)
}

func (e Engine) profitReply() string {
	amount := e.intn(20000) + 5000
	margin := e.intn(20) + 10
	return fmt.Sprintf("Boss! You don make ₦%s profit today with %d%% profit margin. E good, but I think we fit push am reach 25%% if we adjust some things.", humanize.Comma(int64(amount)), margin)
}

// demoProject is the assistant's fixed portfolio snapshot, independent
// of the orchestrator's project store.
type demoProject struct {
	Name     string
	Client   string
	Status   string
	Deadline string
}

var demoProjects = []demoProject{
	{Name: "Website Redesign", Client: "Fashion Palace", Status: "In Progress", Deadline: "Next week"},
	{Name: "Inventory System", Client: "Market Express", Status: "Pending", Deadline: "This month"},
	{Name: "Social Media Campaign", Client: "Juice Republic", Status: "Completed", Deadline: "Yesterday"},
}

func (e Engine) projectReply() string {
	var active []demoProject
	for _, p := range demoProjects {
		if p.Status == "In Progress" {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return fmt.Sprintf("You get %d projects total, but none dey active right now. Make we start a new one?", len(demoProjects))
	}
	first := active[0]
	return fmt.Sprintf("You get %d projects total. %d dey active right now. The most urgent one na \"%s\" for %s, wey go end %s.",
		len(demoProjects), len(active), first.Name, first.Client, first.Deadline)
}

var tips = []string{
	"Try to reduce your expenses small-small. Even 5% reduction go add plenty money to your profit.",
	"Your best customers deserve special treatment. Give them small discount or bonus to keep them loyal.",
	"No forget to follow up with clients wey never pay. Cash flow na king for business o!",
	"Make you try new marketing strategy. Social media fit bring you new customers without spending plenty money.",
	"Your time get value. Focus on the work wey go bring more money, delegate the rest if possible.",
}

func (e Engine) businessTip() string {
	return tips[e.intn(len(tips))]
}

func (e Engine) rand() Source {
	if e.Rand != nil {
		return e.Rand
	}
	return mathSource{}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// intn draws uniformly from [0,n) off the injected source.
func (e Engine) intn(n int) int {
	v := int(e.rand().Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}
