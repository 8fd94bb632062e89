package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: queue
    type: SQS
    sqs:
      uri: https://sqs.eu-west-3.amazonaws.com/1/reports
      region: eu-west-3
  - id: gcp
    type: pubsub
    pubsub:
      project_id: veille
      topic: reports
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "queue" || enabled[1].ID != "gcp" {
		t.Fatalf("expected queue and gcp enabled, got %#v", enabled)
	}
	queue, ok := reg.ByID("queue")
	if !ok || queue.Type != TypeSQS || queue.SQS.Region != "eu-west-3" {
		t.Fatalf("expected inline aws region to decode, got %#v", queue.SQS)
	}
	http1, _ := reg.ByID("http1")
	if http1.HTTP.Method != "POST" || http1.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("expected http defaults, got %#v", http1.HTTP)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "publishers.json", `{"publishers":[{"id":"topic","type":"sns","sns":{"topic_arn":"arn:aws:sns:eu-west-3:1:reports","region":"eu-west-3"}}]}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByID("topic")
	if !ok || cfg.SNS.Region != "eu-west-3" {
		t.Fatalf("unexpected sns config %#v", cfg.SNS)
	}
}

func TestLoadRegistryEmptyPath(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.Enabled()) != 0 {
		t.Fatalf("expected no publishers")
	}
}

func TestValidatePublisherConfigRejectsInvalid(t *testing.T) {
	cases := map[string]PublisherConfig{
		"missing http":   {ID: "h1", Type: TypeHTTP},
		"missing region": {ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "q"}},
		"half keys": {ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{
			TopicARN:  "arn",
			AWSAccess: AWSAccess{Region: "eu-west-3", AccessKeyID: "id"},
		}},
		"missing topic": {ID: "g", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}},
		"unknown type":  {ID: "k", Type: "kafka"},
	}
	for name, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
