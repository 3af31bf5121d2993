// Package ragd provides an embedded Go client for the ragd retrieval
// engine: the same search, RAG chat and ingest pipeline the HTTP server
// runs, wired in-process against a Qdrant index.
//
//	client, err := ragd.New(ctx,
//	    ragd.WithQdrant("http://localhost:6333", ""),
//	    ragd.WithVoyage(os.Getenv("VOYAGE_API_KEY")),
//	    ragd.WithCollection("labor_consultant_docs"),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	res, err := client.Search().Search(ctx, ragd.SearchRequest{
//	    Text: "최저시급 포함 여부",
//	    TopK: 5,
//	})
//
// Answer generation needs an OpenAI key on top of the embedding provider:
//
//	client, err := ragd.New(ctx,
//	    ragd.WithQdrant("http://localhost:6333", ""),
//	    ragd.WithVoyage(voyageKey),
//	    ragd.WithChat(openaiKey, "gpt-4o-mini"),
//	)
//	ans, err := client.Chat().Ask(ctx, ragd.AskRequest{Question: "..."})
//
// Logging and metrics are opt-in via WithLogger (slog) and WithPrometheus.
package ragd
