package datasource

import "github.com/KaramelBytes/tabula-cli/internal/dataset"

var cannedQuotes = []struct {
	symbol, company string
	price, change   float64
}{
	{"AAPL", "Apple Inc.", 189.84, 1.23},
	{"MSFT", "Microsoft Corp.", 415.5, -2.1},
	{"GOOGL", "Alphabet Inc.", 141.8, 0.95},
	{"AMZN", "Amazon.com Inc.", 178.25, 2.4},
	{"NVDA", "NVIDIA Corp.", 875.28, 12.6},
	{"TSLA", "Tesla Inc.", 175.34, -4.22},
}

// Stocks returns a fixed table of sample quotes. The figures are canned
// demo data, not market prices.
func Stocks() Outcome {
	rows := make([]dataset.Row, len(cannedQuotes))
	for i, q := range cannedQuotes {
		prev := q.price - q.change
		rows[i] = dataset.Row{
			"Symbol":   dataset.Str(q.symbol),
			"Company":  dataset.Str(q.company),
			"Price":    dataset.Num(q.price),
			"Change":   dataset.Num(q.change),
			"Change %": dataset.Num(roundTo(q.change/prev*100, 2)),
		}
	}
	ds, err := dataset.New([]string{"Symbol", "Company", "Price", "Change", "Change %"}, rows, "static:stocks")
	if err != nil {
		panic(err)
	}
	return Outcome{Dataset: ds, Note: "sample quotes for demonstration"}
}
