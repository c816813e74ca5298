package assistant_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pal/internal/assistant"
)

// fixedSource always returns the same draw so templated replies are
// deterministic.
type fixedSource struct{ v float64 }

func (s fixedSource) Float64() float64 { return s.v }

func newEngine(v float64) assistant.Engine {
	eng := assistant.New()
	eng.Rand = fixedSource{v: v}
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	return eng
}

func TestClassify(t *testing.T) {
	cases := []struct {
		message string
		want    assistant.Category
	}{
		{"How are my sales today?", assistant.CategorySales},
		{"show me REVENUE", assistant.CategorySales},
		{"what's my income looking like", assistant.CategorySales},
		{"expense report please", assistant.CategoryExpense},
		{"where is my spending going", assistant.CategoryExpense},
		{"profit margin check", assistant.CategoryProfit},
		{"any new project from the client?", assistant.CategoryProject},
		{"give me a tip", assistant.CategoryTip},
		{"I need advice", assistant.CategoryTip},
		{"hello there", assistant.CategoryUnknown},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, assistant.Classify(tc.message), "message %q", tc.message)
	}
}

func TestClassifyPriority(t *testing.T) {
	// sales keywords outrank expense, expense outranks profit
	require.Equal(t, assistant.CategorySales, assistant.Classify("compare sales against expenses"))
	require.Equal(t, assistant.CategoryExpense, assistant.Classify("expense eats into profit"))
	require.Equal(t, assistant.CategoryProfit, assistant.Classify("profit on the project"))
}

func TestSalesReplyPositive(t *testing.T) {
	eng := newEngine(0.5)
	reply := eng.Process("how are sales?")
	require.Equal(t, "You don make ₦35,000 in sales today! That's 8% up from yesterday. You dey do well, boss! 🚀", reply.Text)
	require.Len(t, reply.SuggestedActions, 3)
	require.Equal(t, "add_new_sale", reply.SuggestedActions[0].ActionID)
}

func TestSalesReplyNegative(t *testing.T) {
	eng := newEngine(0.1)
	reply := eng.Process("how are sales?")
	require.Equal(t, "Sales today na ₦15,000, which is 2% down from yesterday. No worry, tomorrow go better! 💪🏾", reply.Text)
}

func TestExpenseReply(t *testing.T) {
	eng := newEngine(0.0)
	reply := eng.Process("expense check")
	require.Equal(t, "Your expenses today reach ₦5,000. Your biggest spending na for marketing. You want make I show you where you fit cut costs?", reply.Text)
	require.Equal(t, "add_expense", reply.SuggestedActions[0].ActionID)
}

func TestProfitReply(t *testing.T) {
	eng := newEngine(0.5)
	reply := eng.Process("what's my profit?")
	require.Equal(t, "Boss! You don make ₦15,000 profit today with 20% profit margin. E good, but I think we fit push am reach 25% if we adjust some things.", reply.Text)
	// profit uses the default action set
	require.Len(t, reply.SuggestedActions, 4)
}

func TestProjectReply(t *testing.T) {
	eng := newEngine(0.5)
	reply := eng.Process("any project update?")
	require.Equal(t, `You get 3 projects total. 1 dey active right now. The most urgent one na "Website Redesign" for Fashion Palace, wey go end Next week.`, reply.Text)
	require.Equal(t, "add_new_project", reply.SuggestedActions[0].ActionID)
}

func TestBusinessTipDeterministic(t *testing.T) {
	eng := newEngine(0.0)
	reply := eng.Process("give me a tip")
	require.Equal(t, "Try to reduce your expenses small-small. Even 5% reduction go add plenty money to your profit.", reply.Text)
}

func TestFallbackReply(t *testing.T) {
	eng := newEngine(0.5)
	reply := eng.Process("xyzzy")
	require.Equal(t, "I dey here to help your business grow. You fit ask me about your sales, expenses, profits, or projects. Or tell me what you need help with today.", reply.Text)
	require.Len(t, reply.SuggestedActions, 4)
}

func TestGreeting(t *testing.T) {
	eng := assistant.New()
	at := func(hour int) string {
		eng.Now = func() time.Time { return time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC) }
		return eng.Greeting()
	}
	require.Equal(t, "Good morning boss! Ready to crush it today?", at(9))
	require.Equal(t, "Afternoon! How business dey move?", at(13))
	require.Equal(t, "Evening boss! Let's check how we performed today.", at(20))
}

func TestWelcomeGreetingAndInsight(t *testing.T) {
	eng := newEngine(0.0)
	require.Equal(t, "Hey boss! How your business dey today?", eng.WelcomeGreeting())
	require.Equal(t, "You dey try sha! Your sales don increase by 12% this week.", eng.Insight())
}

func TestSuggestedActionsStable(t *testing.T) {
	for _, context := range []string{"sales", "expense", "project", "default", "nope"} {
		first := assistant.SuggestedActions(context)
		second := assistant.SuggestedActions(context)
		require.Equal(t, first, second, "context %q", context)
		require.NotEmpty(t, first)
	}
	// unknown contexts fall back to the default catalog
	require.Equal(t, assistant.SuggestedActions("default"), assistant.SuggestedActions("nope"))
}
