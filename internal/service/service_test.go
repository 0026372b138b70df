package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/logging"
	"alcyxob/fitness-log/internal/repository"
	"alcyxob/fitness-log/internal/repository/sqlstore/sqlstoretest"
	"alcyxob/fitness-log/internal/service"

	"golang.org/x/crypto/bcrypt"
)

// fakeCatalog serves canned records and counts calls.
type fakeCatalog struct {
	byType map[string][]domain.RawExercise
	byName map[string][]domain.RawExercise
	err    error
	calls  int
}

func (f *fakeCatalog) LookupByType(_ context.Context, typ string) ([]domain.RawExercise, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byType[typ], nil
}

func (f *fakeCatalog) LookupByName(_ context.Context, name string) ([]domain.RawExercise, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byName[name], nil
}

// fakeFiles records presign and delete calls.
type fakeFiles struct {
	deleted []string
}

func (f *fakeFiles) GeneratePresignedUploadURL(_ context.Context, key, contentType string, _ time.Duration) (string, error) {
	return "https://upload.example.com/" + key + "?ct=" + contentType, nil
}

func (f *fakeFiles) ObjectURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (f *fakeFiles) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, "https://cdn.example.com/") {
		return "", false
	}
	return strings.TrimPrefix(url, "https://cdn.example.com/"), true
}

func (f *fakeFiles) DeleteObject(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type fixture struct {
	store     *repository.Store
	catalog   *fakeCatalog
	files     *fakeFiles
	members   service.MemberService
	exercises service.ExerciseService
	workouts  service.WorkoutService
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: sqlstoretest.NewStore(t),
		catalog: &fakeCatalog{
			byType: map[string][]domain.RawExercise{
				"strength": {
					{Name: "Squat", Type: "strength", Muscle: "quadriceps", Difficulty: "beginner"},
					{Name: "Push-up", Type: "strength", Muscle: "chest", Difficulty: "beginner"},
					{Name: "Deadlift", Type: "strength", Muscle: "hamstrings", Difficulty: "intermediate"},
				},
			},
			byName: map[string][]domain.RawExercise{
				"plank": {{Name: "Plank", Type: "stretching", Muscle: "abdominals"}},
			},
		},
		files: &fakeFiles{},
		now:   time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC),
	}
	log := logging.Discard()
	f.members = service.NewMemberService(f.store.Members, f.files, bcrypt.MinCost, log)
	f.exercises = service.NewExerciseService(f.store.Exercises, f.catalog, log)
	f.workouts = service.NewWorkoutService(f.store.Workouts, f.store.Exercises, time.UTC,
		func() time.Time { return f.now }, log)
	return f
}

func (f *fixture) signup(t *testing.T, username string) *domain.Member {
	t.Helper()
	m, err := f.members.Signup(context.Background(), service.SignupInput{
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Email:     username + "@x.com",
		Password:  "secret1",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return m
}

func names(exercises []domain.Exercise) []string {
	out := make([]string, len(exercises))
	for i, e := range exercises {
		out[i] = e.Name
	}
	return out
}

func TestSignup_HashesPasswordAndDefaults(t *testing.T) {
	f := newFixture(t)
	m, err := f.members.Signup(context.Background(), service.SignupInput{
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     "Alice@X.com",
		Password:  "secret1",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if m.PasswordHash == "" || m.PasswordHash == "secret1" {
		t.Errorf("password stored as %q", m.PasswordHash)
	}
	if m.ImageURL != domain.DefaultImageURL {
		t.Errorf("ImageURL = %q, want default", m.ImageURL)
	}
	if m.Email != "alice@x.com" {
		t.Errorf("Email = %q, want lower-cased", m.Email)
	}
}

func TestSignup_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "alice")

	tests := []struct {
		name string
		in   service.SignupInput
		want error
	}{
		{"duplicate username", service.SignupInput{Username: "alice", FirstName: "A", LastName: "B", Email: "other@x.com", Password: "pw"}, service.ErrUniquenessViolation},
		{"duplicate email", service.SignupInput{Username: "alice2", FirstName: "A", LastName: "B", Email: "ALICE@x.com", Password: "pw"}, service.ErrUniquenessViolation},
		{"empty password", service.SignupInput{Username: "bob", FirstName: "A", LastName: "B", Email: "bob@x.com"}, service.ErrInvalidCredential},
		{"missing username", service.SignupInput{FirstName: "A", LastName: "B", Email: "bob@x.com", Password: "pw"}, service.ErrValidationFailed},
		{"missing last name", service.SignupInput{Username: "bob", FirstName: "A", Email: "bob@x.com", Password: "pw"}, service.ErrValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.members.Signup(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")

	m, ok, err := f.members.Authenticate(ctx, "alice", "secret1")
	if err != nil || !ok || m.ID != alice.ID {
		t.Fatalf("Authenticate(correct) = %v, %v, %v", m, ok, err)
	}
	for _, tc := range []struct{ user, pass string }{
		{"alice", "wrong"},
		{"nobody", "secret1"},
		{"alice", ""},
	} {
		m, ok, err := f.members.Authenticate(ctx, tc.user, tc.pass)
		if err != nil || ok || m != nil {
			t.Errorf("Authenticate(%q, %q) = %v, %v, %v", tc.user, tc.pass, m, ok, err)
		}
	}
}

func TestAuthenticate_TrimsUsernameLikeSignup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")

	for _, user := range []string{"alice ", "  alice", "\talice\n"} {
		m, ok, err := f.members.Authenticate(ctx, user, "secret1")
		if err != nil || !ok || m.ID != alice.ID {
			t.Errorf("Authenticate(%q) = %v, %v, %v", user, m, ok, err)
		}
	}
	if m, ok, err := f.members.Authenticate(ctx, "   ", "secret1"); err != nil || ok || m != nil {
		t.Errorf("Authenticate(blank) = %v, %v, %v", m, ok, err)
	}
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	f.signup(t, "bob")

	newName := "alicia"
	if _, err := f.members.Edit(ctx, alice, service.MemberUpdate{Username: &newName}, "wrong"); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("wrong password: err = %v, want ErrUnauthorized", err)
	}

	taken := "bob"
	if _, err := f.members.Edit(ctx, alice, service.MemberUpdate{Username: &taken}, "secret1"); !errors.Is(err, service.ErrUniquenessViolation) {
		t.Fatalf("taken username: err = %v, want ErrUniquenessViolation", err)
	}

	bio := "runs on weekends"
	empty := ""
	updated, err := f.members.Edit(ctx, alice, service.MemberUpdate{Username: &newName, Bio: &bio, ImageURL: &empty}, "secret1")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if updated.Username != "alicia" || updated.Bio == nil || *updated.Bio != bio {
		t.Errorf("updated = %+v", updated)
	}
	if updated.ImageURL != domain.DefaultImageURL {
		t.Errorf("ImageURL = %q, want default", updated.ImageURL)
	}

	// The new username is what authenticates from now on.
	if _, ok, _ := f.members.Authenticate(ctx, "alicia", "secret1"); !ok {
		t.Error("renamed member cannot authenticate")
	}
}

func TestEdit_ReplacedAvatarIsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")

	upload, err := f.members.RequestAvatarUpload(ctx, alice, "image/png")
	if err != nil {
		t.Fatalf("RequestAvatarUpload: %v", err)
	}
	alice, err = f.members.Edit(ctx, alice, service.MemberUpdate{ImageURL: &upload.ImageURL}, "secret1")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if len(f.files.deleted) != 0 {
		t.Fatalf("default picture must not be deleted, got %v", f.files.deleted)
	}

	other := "https://elsewhere.example.com/me.png"
	if _, err := f.members.Edit(ctx, alice, service.MemberUpdate{ImageURL: &other}, "secret1"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if len(f.files.deleted) != 1 || f.files.deleted[0] != upload.ObjectKey {
		t.Errorf("deleted = %v, want [%s]", f.files.deleted, upload.ObjectKey)
	}
}

func TestRequestAvatarUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")

	if _, err := f.members.RequestAvatarUpload(ctx, alice, "video/mp4"); !errors.Is(err, service.ErrValidationFailed) {
		t.Errorf("non-image: err = %v, want ErrValidationFailed", err)
	}
	up, err := f.members.RequestAvatarUpload(ctx, alice, "image/jpeg")
	if err != nil {
		t.Fatalf("RequestAvatarUpload: %v", err)
	}
	if !strings.HasPrefix(up.ObjectKey, "avatars/"+alice.ID+"/") {
		t.Errorf("ObjectKey = %q", up.ObjectKey)
	}
	if up.ImageURL != "https://cdn.example.com/"+up.ObjectKey {
		t.Errorf("ImageURL = %q", up.ImageURL)
	}

	disabled := service.NewMemberService(f.store.Members, nil, bcrypt.MinCost, logging.Discard())
	if _, err := disabled.RequestAvatarUpload(ctx, alice, "image/png"); !errors.Is(err, service.ErrStorageDisabled) {
		t.Errorf("no storage: err = %v, want ErrStorageDisabled", err)
	}
}

func TestDelete_CascadesWorkoutsKeepsExercises(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")

	if _, err := f.exercises.Browse(ctx, "strength"); err != nil {
		t.Fatalf("Browse: %v", err)
	}
	workout, _, err := f.workouts.AddToToday(ctx, alice, []string{"Squat"})
	if err != nil {
		t.Fatalf("AddToToday: %v", err)
	}

	if err := f.members.Delete(ctx, alice); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.members.Get(ctx, alice.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Get after delete: err = %v", err)
	}
	if _, err := f.store.Workouts.GetByID(ctx, workout.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("workout survived: err = %v", err)
	}
	if n, _ := f.store.Exercises.Count(ctx); n != 3 {
		t.Errorf("exercise count = %d, want 3", n)
	}
	if err := f.members.Delete(ctx, alice); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func TestSync_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raws := []domain.RawExercise{
		{Name: "Squat", Type: "strength"},
		{Name: "Push-up", Type: "strength", Muscle: "chest"},
		{Name: "Push-up", Type: "strength", Muscle: "triceps"},
		{Name: ""},
	}

	first, err := f.exercises.Sync(ctx, raws)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := names(first); len(got) != 2 || got[0] != "Squat" || got[1] != "Push-up" {
		t.Fatalf("first sync = %v", got)
	}
	if first[1].Muscle != "chest" {
		t.Errorf("first record for a name should win, got muscle %q", first[1].Muscle)
	}

	second, err := f.exercises.Sync(ctx, raws)
	if err != nil {
		t.Fatalf("Sync again: %v", err)
	}
	for i := range first {
		if second[i].ID != first[i].ID {
			t.Errorf("exercise %s changed id %s -> %s", first[i].Name, first[i].ID, second[i].ID)
		}
	}
	if n, _ := f.store.Exercises.Count(ctx); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestBrowseAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.exercises.Browse(ctx, "strength")
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if want := []string{"Squat", "Push-up", "Deadlift"}; strings.Join(names(got), ",") != strings.Join(want, ",") {
		t.Errorf("Browse = %v, want %v (catalog order)", names(got), want)
	}

	if _, err := f.exercises.Browse(ctx, "yoga"); !errors.Is(err, service.ErrUnknownCategory) {
		t.Errorf("unknown category: err = %v", err)
	}

	found, err := f.exercises.Search(ctx, "plank")
	if err != nil || len(found) != 1 || found[0].Name != "Plank" {
		t.Fatalf("Search = %v, %v", found, err)
	}
	if _, err := f.exercises.Search(ctx, "  "); !errors.Is(err, service.ErrValidationFailed) {
		t.Errorf("blank search: err = %v", err)
	}

	cached, err := f.exercises.ListCached(ctx, "strength")
	if err != nil {
		t.Fatalf("ListCached: %v", err)
	}
	if strings.Join(names(cached), ",") != "Deadlift,Push-up,Squat" {
		t.Errorf("ListCached = %v, want name order", names(cached))
	}

	if len(f.exercises.Categories()) != len(domain.Categories) {
		t.Error("Categories incomplete")
	}
}

func TestBrowse_CatalogDown(t *testing.T) {
	f := newFixture(t)
	f.catalog.err = errors.New("boom")
	if _, err := f.exercises.Browse(context.Background(), "strength"); !errors.Is(err, service.ErrCatalogUnavailable) {
		t.Errorf("err = %v, want ErrCatalogUnavailable", err)
	}
}

func TestFindOrCreateToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")

	first, err := f.workouts.FindOrCreateToday(ctx, alice)
	if err != nil {
		t.Fatalf("FindOrCreateToday: %v", err)
	}
	if first.WorkoutDate != "2024-05-10" {
		t.Errorf("WorkoutDate = %q", first.WorkoutDate)
	}

	f.now = f.now.Add(10 * time.Hour)
	again, err := f.workouts.FindOrCreateToday(ctx, alice)
	if err != nil {
		t.Fatalf("FindOrCreateToday again: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("same day gave a new workout: %s vs %s", again.ID, first.ID)
	}

	f.now = f.now.Add(24 * time.Hour)
	next, err := f.workouts.FindOrCreateToday(ctx, alice)
	if err != nil {
		t.Fatalf("FindOrCreateToday next day: %v", err)
	}
	if next.ID == first.ID || next.WorkoutDate != "2024-05-11" {
		t.Errorf("next day workout = %+v", next)
	}

	list, err := f.workouts.ListForMember(ctx, alice)
	if err != nil || len(list) != 2 || list[0].ID != next.ID {
		t.Errorf("ListForMember = %+v, %v", list, err)
	}
}

func TestFindOrCreateToday_UsesTimezone(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	svc := service.NewWorkoutService(f.store.Workouts, f.store.Exercises, tokyo,
		func() time.Time { return time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC) }, logging.Discard())

	w, err := svc.FindOrCreateToday(context.Background(), alice)
	if err != nil {
		t.Fatalf("FindOrCreateToday: %v", err)
	}
	if w.WorkoutDate != "2024-05-11" {
		t.Errorf("WorkoutDate = %q, want 2024-05-11", w.WorkoutDate)
	}
}

func TestAttachExercises_SetSemantics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	if _, err := f.exercises.Browse(ctx, "strength"); err != nil {
		t.Fatalf("Browse: %v", err)
	}
	workout, err := f.workouts.FindOrCreateToday(ctx, alice)
	if err != nil {
		t.Fatalf("FindOrCreateToday: %v", err)
	}

	res, err := f.workouts.AttachExercises(ctx, workout, []string{"Push-up", "Push-up", "Burpee"})
	if err != nil {
		t.Fatalf("AttachExercises: %v", err)
	}
	if len(res.Attached) != 1 || res.Attached[0].Name != "Push-up" {
		t.Errorf("Attached = %v", names(res.Attached))
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "Burpee" {
		t.Errorf("Skipped = %v", res.Skipped)
	}

	res, err = f.workouts.AttachExercises(ctx, workout, []string{"Push-up", "Squat"})
	if err != nil {
		t.Fatalf("AttachExercises again: %v", err)
	}
	if len(res.Attached) != 1 || res.Attached[0].Name != "Squat" {
		t.Errorf("second Attached = %v", names(res.Attached))
	}

	detail, err := f.workouts.Get(ctx, alice, workout.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := strings.Join(names(detail.Exercises), ","); got != "Push-up,Squat" {
		t.Errorf("workout exercises = %s, want Push-up,Squat", got)
	}
}

func TestGetWorkout_OwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	workout, err := f.workouts.FindOrCreateToday(ctx, alice)
	if err != nil {
		t.Fatalf("FindOrCreateToday: %v", err)
	}
	if _, err := f.workouts.Get(ctx, bob, workout.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("foreign workout: err = %v, want ErrNotFound", err)
	}
	if _, err := f.workouts.Get(ctx, alice, "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("missing workout: err = %v, want ErrNotFound", err)
	}
}

func TestEndToEnd_Alice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.members.Signup(ctx, service.SignupInput{
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@x.com",
		Password:  "secret1",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	got, ok, err := f.members.Authenticate(ctx, "alice", "secret1")
	if err != nil || !ok || got.ID != alice.ID {
		t.Fatalf("Authenticate(secret1) = %v, %v, %v", got, ok, err)
	}
	if _, ok, _ := f.members.Authenticate(ctx, "alice", "wrong"); ok {
		t.Fatal("Authenticate(wrong) succeeded")
	}

	if _, err := f.exercises.Sync(ctx, []domain.RawExercise{{Name: "Squat", Type: "strength"}}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	workout, err := f.workouts.FindOrCreateToday(ctx, alice)
	if err != nil {
		t.Fatalf("FindOrCreateToday: %v", err)
	}
	if _, err := f.workouts.AttachExercises(ctx, workout, []string{"Squat"}); err != nil {
		t.Fatalf("AttachExercises: %v", err)
	}

	detail, err := f.workouts.Get(ctx, alice, workout.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(detail.Exercises) != 1 || detail.Exercises[0].Name != "Squat" {
		t.Errorf("exercises = %v, want [Squat]", names(detail.Exercises))
	}
}
