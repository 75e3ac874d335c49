// Package llm extracts raw tradeline and consumer records from credit report
// text using a language model. It supports OpenAI, Anthropic and Gemini, with
// chunking, retry logic, rate limiting and response caching.
package llm
