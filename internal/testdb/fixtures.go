//go:build integration

package testdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/require"
)

// Chapter is a seeded scripture chapter and the IDs of its verses in order.
type Chapter struct {
	ID       uuid.UUID
	Number   int
	VerseIDs []uuid.UUID
}

// InsertChapter seeds a chapter with verseCount verses numbered from 1.
// The scripture name is suffixed with a random token so concurrent tests
// never collide on the (scripture_name, chapter_number) key.
func InsertChapter(t *testing.T, db store.DBTX, scripture string, number, verseCount int) Chapter {
	t.Helper()
	ctx := context.Background()

	chapter := Chapter{ID: uuid.New(), Number: number}
	_, err := db.ExecContext(ctx, `
		INSERT INTO scripture_chapters (id, scripture_name, chapter_number, chapter_title)
		VALUES ($1, $2, $3, $4)
	`, chapter.ID, fmt.Sprintf("%s %s", scripture, uuid.NewString()[:8]), number,
		fmt.Sprintf("Chapter %d", number))
	require.NoError(t, err, "Failed to insert chapter")

	for n := 1; n <= verseCount; n++ {
		verseID := uuid.New()
		_, err := db.ExecContext(ctx, `
			INSERT INTO verses (id, chapter_id, verse_number, sanskrit_text,
				transliteration, english_translation)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, verseID, chapter.ID, n,
			fmt.Sprintf("śloka %d.%d", number, n),
			fmt.Sprintf("shloka %d.%d", number, n),
			fmt.Sprintf("Verse %d.%d", number, n))
		require.NoError(t, err, "Failed to insert verse")
		chapter.VerseIDs = append(chapter.VerseIDs, verseID)
	}

	return chapter
}
