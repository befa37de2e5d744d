// Package sdk provides a Go client for the vacmatch HTTP API.
//
// Scrapers push extracted posting batches:
//
//	client := sdk.New("http://localhost:8084", sdk.WithAPIKey("secret"))
//	result, _ := client.Ingest(ctx, sdk.SourceTelegram, batch)
//
// Consumers walk the ranked feed with a stateless cursor:
//
//	window, _ := client.Match(ctx, sdk.MatchRequest{Skills: []string{"go", "sql"}})
//	next, _ := client.Match(ctx, sdk.MatchRequest{
//	    Skills:           []string{"go", "sql"},
//	    CurrentVacancyID: window.NextID,
//	})
package sdk
