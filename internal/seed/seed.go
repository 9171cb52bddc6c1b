package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/db"
)

// Department, course and user rows normally come from the registrar system.
// CreateDevelopmentData fills them in so a fresh database can be used end to end.

type seedUser struct {
	Email     string
	FirstName string
	LastName  string
	Role      models.RoleType
}

var (
	defaultUsers = []seedUser{
		{Email: "admin@campuslink.dev", FirstName: "System", LastName: "Administrator", Role: models.RoleAdmin},
		{Email: "ada.instructor@campuslink.dev", FirstName: "Ada", LastName: "Lovelace", Role: models.RoleInstructor},
		{Email: "alan.student@campuslink.dev", FirstName: "Alan", LastName: "Turing", Role: models.RoleStudent},
		{Email: "grace.student@campuslink.dev", FirstName: "Grace", LastName: "Hopper", Role: models.RoleStudent},
	}

	defaultDepartment = struct{ Name, Code string }{"Computer Engineering", "CENG"}

	defaultCourse = struct{ Title, Code string }{"Data Structures", "CENG201"}
)

// CreateDevelopmentData inserts sample users, a course taught by the sample instructor
// and active enrollments for the sample students. Existing rows are left untouched.
func CreateDevelopmentData(ctx context.Context, pool *pgxpool.Pool, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating development data (Users/Courses/Enrollments)...")

	return db.WithTransaction(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
		userIDs := make(map[string]int64, len(defaultUsers))
		var finalErr error
		for _, u := range defaultUsers {
			id, err := upsertUser(ctx, tx, u)
			if err != nil {
				finalErr = errors.Join(finalErr, fmt.Errorf("seed user %s: %w", u.Email, err))
				continue
			}
			userIDs[u.Email] = id
		}
		if finalErr != nil {
			return finalErr
		}

		var departmentID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO departments (name, code) VALUES ($1, $2)
			 ON CONFLICT (code) DO UPDATE SET name = departments.name
			 RETURNING id`,
			defaultDepartment.Name, defaultDepartment.Code,
		).Scan(&departmentID)
		if err != nil {
			return fmt.Errorf("seed department: %w", err)
		}

		var courseID int64
		err = tx.QueryRow(ctx,
			`INSERT INTO courses (department_id, code, title, instructor_id) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) DO UPDATE SET title = courses.title
			 RETURNING id`,
			departmentID, defaultCourse.Code, defaultCourse.Title, userIDs["ada.instructor@campuslink.dev"],
		).Scan(&courseID)
		if err != nil {
			return fmt.Errorf("seed course: %w", err)
		}

		semester, year := currentTerm(time.Now())
		for _, u := range defaultUsers {
			if u.Role != models.RoleStudent {
				continue
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO enrollments (student_id, course_id, semester, year, status)
				 VALUES ($1, $2, $3, $4, 'ENROLLED')
				 ON CONFLICT (student_id, course_id, semester, year) DO NOTHING`,
				userIDs[u.Email], courseID, semester, year,
			)
			if err != nil {
				return fmt.Errorf("seed enrollment for %s: %w", u.Email, err)
			}
		}

		lgr.Info().
			Int("users", len(userIDs)).
			Int64("courseID", courseID).
			Msg("Development data check/creation finished.")
		return nil
	})
}

func upsertUser(ctx context.Context, tx pgx.Tx, u seedUser) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO users (email, first_name, last_name, role_type, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 ON CONFLICT (email) DO UPDATE SET email = users.email
		 RETURNING id`,
		u.Email, u.FirstName, u.LastName, string(u.Role),
	).Scan(&id)
	return id, err
}

// currentTerm maps a date to the academic term: spring runs January to June
func currentTerm(now time.Time) (string, int) {
	if now.Month() <= time.June {
		return "SPRING", now.Year()
	}
	return "FALL", now.Year()
}
