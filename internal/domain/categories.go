package domain

// Categories is the closed set of category labels a transaction may carry.
// The list mirrors what already exists in the stored data; changing an entry
// here without migrating the sheet breaks lookups.
var Categories = []string{
	"Accounts Receivable",
	"Body Care",
	"Cigarette",
	"Clothing",
	"Donation",
	"Emergency Fund",
	"Dana Darurat",
	"Famliy", // historical misspelling kept for stored-data compatibility
	"Food and Drink",
	"Healthcare",
	"Housing",
	"Instalment",
	"Lifestyle",
	"Savings",
	"Self Improvements",
	"Stock Investment",
	"Supplies",
	"Tax",
	"Transportation",
	"Debt",
	"Utilities",
}

var categorySet = func() map[string]bool {
	m := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// IsValidCategory reports whether name is a member of the closed category
// set. The sentinels Uncategorized and Not Found are not members; they are
// assigned by the system, never accepted as user input.
func IsValidCategory(name string) bool {
	return categorySet[name]
}
