package lmsctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/services/lms/account"
	"github.com/louisbranch/lms/internal/services/lms/course"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
)

// SeedFile is the YAML document loaded by the seed command.
type SeedFile struct {
	Users   []SeedUser   `yaml:"users"`
	Courses []SeedCourse `yaml:"courses"`
}

// SeedUser is one account to create.
type SeedUser struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// SeedCourse is one course owned by the instructor with the given email.
type SeedCourse struct {
	Title       string `yaml:"title"`
	Duration    string `yaml:"duration"`
	Description string `yaml:"description"`
	Instructor  string `yaml:"instructor"`
}

// SeedResult counts what a seed run created and skipped.
type SeedResult struct {
	UsersCreated   int
	UsersSkipped   int
	CoursesCreated int
	CoursesSkipped int
}

// ParseSeed decodes a seed document, rejecting unknown keys.
func ParseSeed(r io.Reader) (SeedFile, error) {
	var file SeedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedFile{}, nil
		}
		return SeedFile{}, fmt.Errorf("decode seed: %w", err)
	}
	return file, nil
}

func newSeedCmd(rt *state) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and courses from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("file", path); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			file, err := ParseSeed(bytes.NewReader(data))
			if err != nil {
				return err
			}
			store, closeStore, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := rt.seed(cmd.Context(), store, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users: %d created, %d skipped; courses: %d created, %d skipped\n",
				result.UsersCreated, result.UsersSkipped, result.CoursesCreated, result.CoursesSkipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "seed YAML file")
	return cmd
}

// seed creates users and then courses. Existing emails and courses an
// instructor already teaches under the same title are skipped, so a seed
// file can be applied repeatedly.
func (rt *state) seed(ctx context.Context, store *sqlstore.Store, file SeedFile) (SeedResult, error) {
	var result SeedResult
	accounts := account.NewService(store, rt.clock, account.Options{
		BcryptCost: rt.cfg.BcryptCost,
		Logger:     rt.logger.Named("account"),
	})
	for _, user := range file.Users {
		_, err := accounts.Create(ctx, operator, account.CreateInput{
			Email:    user.Email,
			Name:     user.Name,
			Password: user.Password,
			Role:     user.Role,
		})
		switch {
		case err == nil:
			result.UsersCreated++
		case apperrors.HasCode(err, apperrors.CodeEmailInUse):
			result.UsersSkipped++
		default:
			return result, fmt.Errorf("seed user %s: %w", user.Email, err)
		}
	}

	if len(file.Courses) == 0 {
		return result, nil
	}
	courses := course.NewService(store, nil, rt.clock, course.Options{Logger: rt.logger.Named("course")})
	existing, err := courses.List(ctx)
	if err != nil {
		return result, err
	}
	taught := make(map[string]bool, len(existing))
	for _, c := range existing {
		taught[courseKey(c.InstructorID, c.Title)] = true
	}
	for _, c := range file.Courses {
		email, err := account.NormalizeEmail(c.Instructor)
		if err != nil {
			return result, fmt.Errorf("seed course %q: %w", c.Title, err)
		}
		instructor, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			return result, fmt.Errorf("seed course %q: instructor %s: %w", c.Title, email, err)
		}
		key := courseKey(instructor.ID, c.Title)
		if taught[key] {
			result.CoursesSkipped++
			continue
		}
		created, err := courses.Create(ctx, operator, course.CreateInput{
			Title:        c.Title,
			Duration:     c.Duration,
			Description:  c.Description,
			InstructorID: instructor.ID,
		})
		if err != nil {
			return result, fmt.Errorf("seed course %q: %w", c.Title, err)
		}
		taught[key] = true
		result.CoursesCreated++
		rt.logger.Debug("seeded course", zap.Int64("course_id", created.ID), zap.String("instructor", email))
	}
	return result, nil
}

func courseKey(instructorID int64, title string) string {
	return fmt.Sprintf("%d/%s", instructorID, strings.ToLower(strings.TrimSpace(title)))
}
