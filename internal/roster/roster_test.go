package roster

import (
	"slices"
	"testing"

	"edutools/internal/canvas"
)

func testStudents() []canvas.User {
	return []canvas.User{
		{ID: 1001, Name: "Jane Doe", LoginID: "JDoe", Email: "jdoe@u.boisestate.edu"},
		{ID: 1002, Name: "Richard Roe", LoginID: "rroe", Email: "rroe@u.boisestate.edu"},
		{ID: 9999, Name: "Test Student"},
	}
}

func testSubmissions() []canvas.Submission {
	return []canvas.Submission{
		{ID: 1, UserID: 1001, Grade: "5"},
		{ID: 2, UserID: 9999},
		{ID: 3, UserID: 4242}, // dropped enrollment, not on the roster
	}
}

func TestBuildKeysOnUsername(t *testing.T) {
	r := Build(testStudents(), testSubmissions())

	if len(r) != 3 {
		t.Fatalf("Expected 3 roster entries, got %d", len(r))
	}

	entry, ok := r["jdoe"]
	if !ok {
		t.Fatalf("Expected login_id to be lowercased into the roster key")
	}
	if entry.Submission == nil || entry.Submission.ID != 1 {
		t.Errorf("Submission not attached: %+v", entry.Submission)
	}

	if _, ok := r["test_student"]; !ok {
		t.Errorf("Canvas's synthetic Test Student should key as test_student")
	}

	if entry := r["rroe"]; entry.Submission != nil {
		t.Errorf("Student without a submission should have nil Submission, got %+v", entry.Submission)
	}
}

func TestBuildIgnoresUnknownSubmitters(t *testing.T) {
	r := Build(testStudents(), testSubmissions())
	for username, entry := range r {
		if entry.Submission != nil && entry.Submission.UserID == 4242 {
			t.Errorf("Submission from unknown user attached to %s", username)
		}
	}
}

func TestApplyScoresScalesToPoints(t *testing.T) {
	r := Build(testStudents(), testSubmissions())

	ungradable := ApplyScores(r, map[string]float64{"jdoe": 85, "test_student": 100}, 40)

	if grade, ok := r["jdoe"].Grade(); !ok || grade != "34" {
		t.Errorf("Expected 85%% of 40 = 34, got %q (set=%v)", grade, ok)
	}
	if grade, ok := r["test_student"].Grade(); !ok || grade != "40" {
		t.Errorf("Expected full marks for test_student, got %q (set=%v)", grade, ok)
	}

	// rroe has no submission record, so the zero grade cannot be posted.
	if !slices.Contains(ungradable, "rroe") {
		t.Errorf("Expected rroe to be reported as ungradable, got %v", ungradable)
	}
	if _, ok := r["rroe"].Grade(); ok {
		t.Errorf("Grade must not be marked pending without a submission")
	}
}

func TestApplyScoresZeroesMissingStudents(t *testing.T) {
	r := Build(testStudents(), testSubmissions())

	ApplyScores(r, map[string]float64{}, 40)

	if grade, ok := r["jdoe"].Grade(); !ok || grade != "0" {
		t.Errorf("Student absent from export should get 0, got %q (set=%v)", grade, ok)
	}
}

func TestDirty(t *testing.T) {
	r := Build(testStudents(), testSubmissions())

	if len(r.Dirty()) != 0 {
		t.Fatalf("Fresh roster should have no dirty entries")
	}

	r["jdoe"].SetGrade("12.5")

	dirty := r.Dirty()
	if len(dirty) != 1 || Username(dirty[0].User) != "jdoe" {
		t.Errorf("Expected only jdoe dirty, got %d entries", len(dirty))
	}
}
