package store

// SeedCorpus returns the built-in learning-resource documents the vector
// index is seeded with at startup. Order matters: it is the insertion order
// used as the deterministic tie-break during similarity search.
func SeedCorpus() []Document {
	return []Document{
		{
			ID:      "langgraph-docs",
			Title:   "LangGraph Docs",
			Content: "LangGraph is a library for building stateful, multi-actor applications with LLMs. It allows you to create agent graphs with nodes and edges for complex workflows.",
			Metadata: map[string]interface{}{
				"url": "https://langchain-ai.github.io/langgraph/", "type": "framework",
			},
		},
		{
			ID:      "langchain-overview",
			Title:   "LangChain Overview",
			Content: "LangChain is a framework for developing applications powered by language models. It provides components for chains, agents, and memory.",
			Metadata: map[string]interface{}{
				"url": "https://python.langchain.com/docs/get_started/introduction", "type": "framework",
			},
		},
		{
			ID:      "python-async-fastapi",
			Title:   "Python Async & FastAPI",
			Content: "Python async programming with asyncio allows for concurrent code using async/await syntax. FastAPI is a modern web framework for building APIs with Python 3.7+ based on standard Python type hints.",
			Metadata: map[string]interface{}{
				"url": "https://fastapi.tiangolo.com/", "type": "language",
			},
		},
		{
			ID:      "vector-stores-guide",
			Title:   "Vector Stores Guide",
			Content: "Vector stores like FAISS or Chroma enable efficient similarity search for embeddings. They are essential for RAG (Retrieval-Augmented Generation) patterns.",
			Metadata: map[string]interface{}{
				"url": "https://python.langchain.com/docs/modules/data_connection/vectorstores/", "type": "infrastructure",
			},
		},
		{
			ID:      "building-llm-agents",
			Title:   "Building LLM Agents",
			Content: "LLM agents can use tools to perform actions. Tools can be functions that the agent calls to get information or execute tasks.",
			Metadata: map[string]interface{}{
				"url": "https://python.langchain.com/docs/modules/agents/", "type": "technique",
			},
		},
		{
			ID:      "llm-providers-comparison",
			Title:   "LLM Providers Comparison",
			Content: "OpenAI provides powerful language models like GPT-4. Claude from Anthropic and Gemini from Google are alternatives with different strengths.",
			Metadata: map[string]interface{}{
				"url": "https://example.com/llm-comparison", "type": "overview",
			},
		},
		{
			ID:      "rag-explained",
			Title:   "RAG Explanation",
			Content: "Retrieval-Augmented Generation (RAG) combines retrieval systems with generative models to provide accurate, up-to-date responses grounded in source documents.",
			Metadata: map[string]interface{}{
				"url": "https://example.com/rag-explained", "type": "technique",
			},
		},
		{
			ID:      "go-concurrency",
			Title:   "Go Concurrency Patterns",
			Content: "Go provides goroutines and channels for concurrent programming. Worker pools, pipelines, and context-based cancellation are the core patterns for building reliable backend services.",
			Metadata: map[string]interface{}{
				"url": "https://go.dev/blog/pipelines", "type": "language",
			},
		},
		{
			ID:      "docker-kubernetes-intro",
			Title:   "Docker & Kubernetes Introduction",
			Content: "Docker packages applications into containers. Kubernetes orchestrates containers at scale, handling deployment, scaling, and service discovery for cloud-native systems.",
			Metadata: map[string]interface{}{
				"url": "https://kubernetes.io/docs/tutorials/", "type": "infrastructure",
			},
		},
		{
			ID:      "sql-fundamentals",
			Title:   "SQL Fundamentals",
			Content: "SQL is the standard language for querying relational databases. Joins, indexes, and transactions are the core concepts every backend developer needs.",
			Metadata: map[string]interface{}{
				"url": "https://example.com/sql-fundamentals", "type": "database",
			},
		},
		{
			ID:      "prompt-engineering-guide",
			Title:   "Prompt Engineering Guide",
			Content: "Prompt engineering is the practice of designing inputs for LLMs to produce reliable outputs. Few-shot examples, structured output formats, and evaluation loops improve quality.",
			Metadata: map[string]interface{}{
				"url": "https://example.com/prompt-engineering", "type": "technique",
			},
		},
		{
			ID:      "ml-foundations",
			Title:   "Machine Learning Foundations",
			Content: "Machine learning covers supervised and unsupervised learning, model evaluation, and feature engineering. Libraries like scikit-learn and PyTorch are the standard toolkit.",
			Metadata: map[string]interface{}{
				"url": "https://example.com/ml-foundations", "type": "technique",
			},
		},
	}
}
