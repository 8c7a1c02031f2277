package generate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ravi-parthasarathy/webforge/pkg/router"
)

// Gemini follows schema instructions reliably; other vendors need the
// JSON-only rules spelled out or they wrap output in markdown and prose.
const geminiBasePrompt = "Return exactly one JSON object describing a React+Vite+TypeScript project. " +
	"Schema must be: {\"project\": {\"name\": string, \"description\": string, \"files\": {...}, \"dirents\": {...}, \"meta\": {...}}}. " +
	"Files should be strings (escaped) or objects with a 'content' key. " +
	"Return only the JSON object and nothing else.\n\n"

const explicitBasePrompt = "CRITICAL: You MUST return ONLY valid JSON. No markdown, no code blocks, no explanations, no text before or after.\n\n" +
	"Return exactly one JSON object describing a React+Vite+TypeScript project. " +
	"Schema must be: {\"project\": {\"name\": string, \"description\": string, \"files\": {...}, \"dirents\": {...}, \"meta\": {...}}}. " +
	"Files should be strings (escaped) or objects with a 'content' key.\n\n" +
	"IMPORTANT: Your response must start with { and end with }. Do NOT wrap in ```json or markdown. Return ONLY the raw JSON object.\n\n"

const strictPreamble = "You are a JSON generator. Return ONLY valid JSON, nothing else.\n\n" +
	"CRITICAL RULES:\n" +
	"1. Start your response with {\n" +
	"2. End your response with }\n" +
	"3. Do NOT include markdown code blocks (no ```json or ```)\n" +
	"4. Do NOT include any text before or after the JSON\n" +
	"5. Do NOT include explanations or comments\n" +
	"6. Ensure all strings are properly escaped (use \\n for newlines, \\\" for quotes)\n" +
	"7. Ensure the JSON is complete and valid\n\n"

const strictModPreamble = "You are a JSON generator. Return ONLY valid JSON, nothing else.\n\n" +
	"CRITICAL RULES:\n" +
	"1. Start your response with {\n" +
	"2. End your response with }\n" +
	"3. Do NOT include markdown code blocks (no ```json or ```)\n" +
	"4. Do NOT include any text before or after the JSON\n" +
	"5. Do NOT include explanations or comments\n\n"

const intentInstructions = "You are an intent classifier. Return exactly one JSON object (no extra text) in this format:\n" +
	"{ \"label\": \"<one of: webpage_build, greeting_only, chat, illegal, other>\", \"explanation\": \"<1-2 sentence>\", \"confidence\": 0.0 }\n" +
	"Definitions: webpage_build = user wants a webpage; greeting_only = simple hello; chat = general Q/A; illegal = disallowed; other = else.\n" +
	"Be conservative: treat 'what is a webpage' as chat (educational)."

const pageTypeInstructions = "You are a page type classifier for web development. Return exactly one JSON object (no extra text) in this format:\n" +
	"{ \"page_type\": \"<one of: landing_page, crm_dashboard, hr_portal, inventory_management, ecommerce_fashion, digital_product_store, service_marketplace, student_portfolio, hyperlocal_delivery, real_estate_listing, ai_tutor_lms, generic>\", \"explanation\": \"<1-2 sentence>\", \"confidence\": 0.0 }\n\n" +
	"Definitions:\n" +
	"- landing_page: Single marketing/promotional page, lead capture, product launch, campaign\n" +
	"- crm_dashboard: CRM/Customer management, lead tracking, sales pipeline\n" +
	"- hr_portal: HR/Employee management, onboarding, recruitment\n" +
	"- inventory_management: Stock/warehouse management, inventory tracking\n" +
	"- ecommerce_fashion: Online fashion/clothing store, product catalog\n" +
	"- digital_product_store: Digital downloads, templates, ebooks\n" +
	"- service_marketplace: Two-sided marketplace, service providers, booking\n" +
	"- student_portfolio: Personal portfolio, resume, projects showcase\n" +
	"- hyperlocal_delivery: Food/grocery delivery, on-demand service\n" +
	"- real_estate_listing: Property listings, real estate directory\n" +
	"- ai_tutor_lms: Learning management, courses, education platform\n" +
	"- generic: None of the above\n"

const queryDetailInstructions = "You are a requirements analyzer. Determine if the user's request has enough detail or needs follow-up questions.\n" +
	"Return exactly one JSON object (no extra text) in this format:\n" +
	"{ \"needs_followup\": true/false, \"explanation\": \"<1-2 sentence>\", \"confidence\": 0.0 }\n\n" +
	"Guidelines:\n" +
	"- needs_followup=true if request is vague (e.g., 'design a landing page', 'build a CRM')\n" +
	"- needs_followup=false if request has specific details (e.g., 'design a landing page for a SaaS product targeting developers with pricing section and testimonials')\n" +
	"- Consider: industry mentioned, target audience specified, features listed, purpose stated\n"

const complexityInstructions = "You are a task complexity classifier for web development modifications. Return exactly one JSON object (no extra text) in this format:\n" +
	"{ \"complexity\": \"<one of: small, medium, complex>\", \"explanation\": \"<1-2 sentence>\", \"confidence\": 0.0 }\n\n" +
	"Guidelines:\n" +
	"- small: Simple text/content changes, color/theme updates, minor CSS tweaks, single field updates\n" +
	"- medium: Adding a component, modifying layout structure, updating multiple related files, adding a feature\n" +
	"- complex: Major restructuring, adding multiple new features, complex logic changes, database schema changes, full page redesigns\n" +
	"Examples:\n" +
	"- 'Change the title to X' -> small\n" +
	"- 'Add a contact form' -> medium\n" +
	"- 'Redesign the entire dashboard with new analytics and user management' -> complex\n"

// buildGenerationPrompt assembles the final project-generation prompt:
// schema instructions, page-type requirements, questionnaire answers, and
// wizard fields.
func buildGenerationPrompt(provider string, req GenerateRequest) string {
	var b strings.Builder
	if provider == router.PrimaryProvider {
		b.WriteString(geminiBasePrompt)
	} else {
		b.WriteString(explicitBasePrompt)
	}

	if pt := req.PageType; pt != nil {
		fmt.Fprintf(&b, "\n=== PAGE TYPE: %s (%s) ===\n", pt.Name, pt.Category)
		fmt.Fprintf(&b, "Target User: %s\n\n", pt.EndUser)

		b.WriteString("REQUIRED CORE PAGES:\n")
		for i, page := range pt.CorePages {
			fmt.Fprintf(&b, "%d. %s\n", i+1, page)
		}

		b.WriteString("\n\nREQUIRED COMPONENTS TO IMPLEMENT:\n")
		for i, c := range pt.Components {
			fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, c.Name, c.Description)
		}
	}

	if len(req.Answers) > 0 {
		b.WriteString("\n=== USER REQUIREMENTS (from questionnaire) ===\n")
		for _, key := range sortedKeys(req.Answers) {
			switch v := req.Answers[key].(type) {
			case []string:
				fmt.Fprintf(&b, "- %s: %s\n", key, strings.Join(v, ", "))
			case []any:
				parts := make([]string, 0, len(v))
				for _, item := range v {
					parts = append(parts, fmt.Sprint(item))
				}
				fmt.Fprintf(&b, "- %s: %s\n", key, strings.Join(parts, ", "))
			default:
				fmt.Fprintf(&b, "- %s: %v\n", key, v)
			}
		}
	}

	wizard := req.WizardInputs
	if wizard == nil {
		wizard = map[string]string{}
	}
	fields, _ := json.Marshal(wizard)
	b.WriteString("USER_FIELDS:\n")
	b.Write(fields)

	return b.String()
}

// buildModificationPrompt embeds the base project and the instruction into
// the JSON-modifier prompt.
func buildModificationPrompt(baseProject map[string]any, instruction string) string {
	base, _ := json.MarshalIndent(map[string]any{"project": baseProject}, "", "  ")
	return "You are a JSON project modifier. You MUST return ONLY valid JSON, nothing else.\n\n" +
		"CRITICAL REQUIREMENTS:\n" +
		"1. Return ONLY a JSON object in this exact format: {\"project\": {...}}\n" +
		"2. The JSON must match the schema of the base project exactly\n" +
		"3. Modify ONLY what the user requests, keep everything else unchanged\n" +
		"4. Do NOT include any markdown, code blocks, explanations, or text outside the JSON\n" +
		"5. The output must be parseable JSON that starts with { and ends with }\n\n" +
		"Base project JSON:\n" + string(base) + "\n\n" +
		"User modification request:\n" + instruction + "\n\n" +
		"IMPORTANT: Return ONLY the complete modified project JSON. No markdown, no code blocks, no explanations. Just the raw JSON starting with { and ending with }."
}

// sortedKeys keeps questionnaire sections deterministic across runs.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// classifierPrompt appends the user text as a JSON string literal so
// embedded quotes and newlines cannot break the instruction framing.
func classifierPrompt(instructions, heading, userText string) string {
	quoted, _ := json.Marshal(userText)
	return instructions + "\n\n" + heading + ":\n" + string(quoted)
}
