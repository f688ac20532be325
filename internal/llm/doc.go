// Package llm generates incident response playbooks with hosted language
// models. Google Gemini is the default provider; OpenAI and Anthropic are
// supported over their HTTP APIs. Requests are rate limited and transient
// failures are retried.
package llm
