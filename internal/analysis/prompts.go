// prompts.go - System prompts for the analysis tasks

package analysis

import (
	"strings"

	"github.com/bosocmputer/account_statement_ai/internal/ledger"
)

// DashboardCategories are the answers the transaction classifier may give
var DashboardCategories = []string{"Cash Balance", "Revenue", "Expenses", "Net Burn"}

// finalAmountKeywords are the labels that usually precede a document's total
var finalAmountKeywords = []string{
	"Total:", "Final Amount:", "Amount Due:", "Grand Total:", "Net Amount:",
	"Final Balance:", "Total Due:", "Final Payment:", "Total Payment:",
	"Final Sum:", "Total Sum:", "Balance Due:", "Amount Owed:",
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return strings.Join(quoted, ", ")
}

func finalAmountSystemPrompt() string {
	return "You are a financial amount extraction specialist. Your ONLY job is to find the FINAL/TOTAL amount from the given text. " +
		"Look for these specific patterns and keywords: " + quoteAll(finalAmountKeywords) + ". " +
		"Numbers that appear to be totals are usually the largest amount or the last amount mentioned. " +
		"Return ONLY a JSON object with this exact format: " +
		`{ "final_amount": <number>, "confidence": <0-1>, "amount_type": <string>, "extraction_notes": <string> } ` +
		"Where: " +
		"- final_amount: The extracted final amount as a number " +
		"- confidence: How confident you are (0-1) " +
		"- amount_type: What type of amount this is (e.g., 'Total Due', 'Final Payment', 'Net Amount') " +
		"- extraction_notes: Brief explanation of why you chose this amount " +
		`If no amount is found, return: { "final_amount": 0, "confidence": 0, "amount_type": "Not Found", "extraction_notes": "No amount detected" }`
}

func classificationSystemPrompt() string {
	return "You are a financial classification expert. " +
		"Classify the following financial transaction or document text into one of these categories: " +
		strings.Join(DashboardCategories, ", ") + ". " +
		"Respond with only the category name, nothing else."
}

func documentAnalysisSystemPrompt() string {
	categories := make([]string, len(ledger.DocumentCategories))
	for i, c := range ledger.DocumentCategories {
		categories[i] = string(c)
	}

	return "You are a professional financial document analyzer specializing in extracting FINAL AMOUNTS. " +
		"Your primary goal is to identify and extract the FINAL/TOTAL amount that should be paid or received. " +
		"Look for keywords like: 'Total', 'Final Amount', 'Amount Due', 'Grand Total', 'Net Amount', 'Final Balance', 'Total Due', 'Final Payment', 'Total Payment', 'Final Sum', 'Total Sum'. " +
		"Analyze the given document and classify it into one of these categories: " +
		strings.Join(categories, ", ") + ". " +
		"Extract relevant financial data and return ONLY valid JSON in this format: " +
		`{ "category": <string>, "extractedData": <object>, "confidence": <float between 0 and 1> }. ` +
		"The extractedData MUST include: " +
		"- amount: The FINAL/TOTAL amount (the most important field) " +
		"- date: Document date or transaction date " +
		"- description: Brief description of the transaction/document " +
		"- vendor/customer: Name of the vendor, customer, or party involved " +
		"- payment_terms: Payment terms if mentioned " +
		"- due_date: Due date if mentioned " +
		"- final_amount_confidence: Confidence level (0-1) for the final amount extraction " +
		"- amount_breakdown: Any subtotals, taxes, fees that make up the final amount " +
		"If multiple amounts are present, choose the one that appears to be the final total. " +
		"Ensure all amounts are positive numbers and dates are in YYYY-MM-DD format. " +
		"Do not include any explanation or text outside the JSON."
}
