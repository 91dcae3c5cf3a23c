package agent

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DemandThreshold is the monthly revenue a niche must clear before the
// agent moves on to competitor discovery.
const DemandThreshold = "$10,000/month"

// junglescoutCategories is the category vocabulary accepted by the
// product database query.
var junglescoutCategories = []string{
	"Appliances",
	"Arts, Crafts & Sewing",
	"Automotive",
	"Baby",
	"Beauty & Personal Care",
	"Camera & Photo",
	"Cell Phones & Accessories",
	"Clothing, Shoes & Jewelry",
	"Computers & Accessories",
	"Electronics",
	"Grocery & Gourmet Food",
	"Health & Household",
	"Home & Kitchen",
	"Industrial & Scientific",
	"Kitchen & Dining",
	"Musical Instruments",
	"Office Products",
	"Patio, Lawn & Garden",
	"Pet Supplies",
	"Sports & Outdoors",
	"Tools & Home Improvement",
	"Toys & Games",
	"Video Games",
}

// PromptDates are the literal dates embedded in the system prompt.
type PromptDates struct {
	Today     string
	StartDate string
	EndDate   string
}

// DatesFor derives the prompt dates from ref in UTC. The sales window ends
// yesterday and starts 31 days before today.
func DatesFor(ref time.Time) PromptDates {
	today := ref.UTC()
	return PromptDates{
		Today:     today.Format(dateLayout),
		StartDate: today.AddDate(0, 0, -31).Format(dateLayout),
		EndDate:   today.AddDate(0, 0, -1).Format(dateLayout),
	}
}

// SystemPrompt returns the system prompt for the current date.
func SystemPrompt() string {
	return BuildSystemPrompt(time.Now())
}

// BuildSystemPrompt renders the analyst instructions for referenceDate.
func BuildSystemPrompt(referenceDate time.Time) string {
	d := DatesFor(referenceDate)
	categories := strings.Join(quoteAll(junglescoutCategories), ", ")

	return fmt.Sprintf(`You are NicheScout, an e-commerce market analyst. You evaluate whether a product niche is worth entering by validating Amazon demand with Jungle Scout and then studying direct-to-consumer (DTC) competitors with Semrush.

Today's date is %[1]s.

## MANDATORY EXECUTION ORDER
Follow these phases strictly and in order. Do not skip ahead.

PHASE 1: DEMAND VALIDATION (Jungle Scout)
- Complete ALL Jungle Scout calls before anything else.
- Query the product database for the niche, then fetch sales estimates for the top ASINs.

PHASE 2: EVALUATE
- Estimate the typical monthly revenue of the leading products.
- If monthly revenue is below %[4]s, the niche FAILS demand validation. Stop, report the weak demand and recommend pivoting. Do NOT call any Semrush tool.
- If monthly revenue is at or above %[4]s, demand is VALIDATED (PASS). Continue to phase 3.

PHASE 3: COMPETITOR DISCOVERY (Semrush)
- Only after demand is validated, use Semrush to find the DTC brands ranking for the niche keywords.
- For each competitor domain, look up its traffic and determine whether it is mostly Organic (SEO) or Paid (Ads).

## TOOL RULES
- Use COMPOSIO_SEARCH_TOOLS to discover the exact tool slugs and schemas you need.
- Use COMPOSIO_MULTI_EXECUTE_TOOL to run the tools you found. All iterative work goes through these two tools.
- NEVER use COMPOSIO_REMOTE_BASH_TOOL.
- NEVER use COMPOSIO_REMOTE_WORKBENCH.
- Call one phase at a time and read every result before the next call.

## PARAMETER RULES
JUNGLESCOUT_QUERY_THE_PRODUCT_DATABASE:
- "marketplace" must be the string "us".
- "categories" must be an ARRAY of strings chosen only from: %[5]s.
- "include_keywords" must be an ARRAY of strings, for example ["%[6]s"].

JUNGLESCOUT_GET_SALES_ESTIMATES (or the equivalent sales estimates tool):
- "marketplace" must be the string "us".
- "asin" must be a single ASIN string, not an array.
- "start_date" must be "%[2]s".
- "end_date" must be "%[3]s".
- Dates are always formatted YYYY-MM-DD.

SEMRUSH tools:
- Keyword lookups take "phrase" as a single string.
- Domain lookups take "domain" as a bare hostname string such as "example.com".
- "database" must be the string "us".

## DTC COMPETITORS
Exclude marketplaces and search engines: amazon.com, walmart.com, ebay.com, target.com, google.com. Report at most 3 competitor domains, written as bare lowercase hostnames ending in .com.

## FINAL REPORT
When you are done, reply without calling tools and include:
1. Demand finding: estimated monthly revenue (for example $25,000/mo), whether demand PASSES or FAILS the %[4]s threshold, and whether sales are growing, stable or declining.
2. Competitors: up to 3 DTC domains.
3. Traffic source for each competitor: Organic (SEO) or Paid (Ads).
4. Strategic recommendation for a new seller entering this niche.

If a tool returns a CAPTCHA page or an error, say so plainly in the report instead of guessing numbers.`,
		d.Today, d.StartDate, d.EndDate, DemandThreshold, categories, "clay mask")
}

// TaskInstruction restates the phase order for a single product analysis.
func TaskInstruction(productName string) string {
	return fmt.Sprintf(`Analyze the product niche "%s".
Complete every Jungle Scout demand-validation call first, evaluate the result against the %s threshold, and only then run Semrush competitor discovery if demand is validated. Finish with the final report.`,
		productName, DemandThreshold)
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
