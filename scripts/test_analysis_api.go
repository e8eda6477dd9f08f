package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const (
	baseURL = "http://localhost:3000/api"
)

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // No timeout, analysis runs can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting Job Analysis API Test\n")

	// 1. Start an analysis
	color.Yellow("\n1. Start Job Analysis")
	analyzeReq := map[string]interface{}{
		"job_description": "We are hiring a backend engineer to build AI agent pipelines. Must know Python, LangGraph, Docker and vector databases.",
		"current_skills":  []string{"Python", "SQL"},
	}
	resp, body, err := sendRequest("POST", "/analysis/v1/analyze", analyzeReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var analyzeResp map[string]interface{}
	json.Unmarshal(body, &analyzeResp)
	prettyPrint(analyzeResp)

	// Extract session id
	var sessionID string
	if data, ok := analyzeResp["data"].(map[string]interface{}); ok {
		if id, ok := data["session_id"].(string); ok {
			sessionID = id
		}
	}
	if sessionID == "" {
		color.Red("No session_id returned, aborting")
		os.Exit(1)
	}

	// 2. Poll the graph while the agent works
	color.Yellow("\n2. Watch Flow Graph (polling)")
	for i := 0; i < 30; i++ {
		time.Sleep(2 * time.Second)
		resp, body, err = sendRequest("GET", "/agent/v1/graph/"+sessionID, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		var graphResp map[string]interface{}
		json.Unmarshal(body, &graphResp)

		// Stop polling once the session leaves "running"
		respSession, sessionBody, err := sendRequest("GET", "/analysis/v1/session/"+sessionID, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		_ = respSession
		var sessionResp map[string]interface{}
		json.Unmarshal(sessionBody, &sessionResp)
		status := ""
		if data, ok := sessionResp["data"].(map[string]interface{}); ok {
			status, _ = data["status"].(string)
		}
		color.Green("Poll %d: status=%s", i+1, status)
		if status != "running" && status != "" {
			prettyPrint(graphResp)
			break
		}
	}

	// 3. Fetch the event log
	color.Yellow("\n3. Get Event Log")
	resp, body, err = sendRequest("GET", "/agent/v1/events/"+sessionID, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var eventsResp map[string]interface{}
	json.Unmarshal(body, &eventsResp)
	prettyPrint(eventsResp)

	// 4. Fetch the final result
	color.Yellow("\n4. Get Final Session Result")
	resp, body, err = sendRequest("GET", "/analysis/v1/session/"+sessionID, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var finalResp map[string]interface{}
	json.Unmarshal(body, &finalResp)
	prettyPrint(finalResp)

	color.Cyan("\n✅ Done")
}
