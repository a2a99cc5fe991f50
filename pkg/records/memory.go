package records

import (
	"context"
	"sync"
)

// MemorySource is an in-memory Source for tests and local development.
type MemorySource struct {
	mu        sync.RWMutex
	users     map[int64]User
	teams     map[int64]Team
	projects  map[int64]Project
	members   map[[2]int64]struct{} // [userID, teamID]
	images    []string
	documents []string
}

// NewMemorySource creates an empty in-memory record source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		users:    make(map[int64]User),
		teams:    make(map[int64]Team),
		projects: make(map[int64]Project),
		members:  make(map[[2]int64]struct{}),
	}
}

// AddUser registers a user.
func (s *MemorySource) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddTeam registers a team.
func (s *MemorySource) AddTeam(t Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
}

// AddProject registers a project.
func (s *MemorySource) AddProject(p Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
}

// AddMember records membership of userID in teamID.
func (s *MemorySource) AddMember(userID, teamID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[[2]int64{userID, teamID}] = struct{}{}
}

// AddImagePath records a referenced project image path.
func (s *MemorySource) AddImagePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, path)
}

// AddDocumentPath records a referenced document or glossary path.
func (s *MemorySource) AddDocumentPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, path)
}

func (s *MemorySource) UserIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemorySource) UserByID(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemorySource) TeamIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.teams))
	for id := range s.teams {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemorySource) Projects(_ context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	return projects, nil
}

func (s *MemorySource) AvatarPaths(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for _, u := range s.users {
		if u.AvatarPath != "" {
			paths = append(paths, u.AvatarPath)
		}
	}
	return paths, nil
}

func (s *MemorySource) ImagePaths(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, len(s.images))
	copy(paths, s.images)
	return paths, nil
}

func (s *MemorySource) DocumentPaths(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, len(s.documents))
	copy(paths, s.documents)
	return paths, nil
}

func (s *MemorySource) IsTeamMember(_ context.Context, userID, teamID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[[2]int64{userID, teamID}]
	return ok, nil
}
