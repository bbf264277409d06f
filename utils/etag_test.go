package utils

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateETag(t *testing.T) {
	id := primitive.NewObjectID()
	now := time.Now()

	etag := GenerateETag(id, now)
	if !strings.HasPrefix(etag, `"`) || !strings.HasSuffix(etag, `"`) {
		t.Fatalf("etag not quoted: %s", etag)
	}

	if GenerateETag(id, now) != etag {
		t.Fatal("etag not stable for the same id and timestamp")
	}
	if GenerateETag(id, now.Add(time.Nanosecond)) == etag {
		t.Fatal("etag unchanged after modification")
	}
	if GenerateETag(primitive.NewObjectID(), now) == etag {
		t.Fatal("etag collides across documents")
	}
}
