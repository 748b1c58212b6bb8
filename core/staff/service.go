package staff

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sikap/core"
)

var (
	// errors
	ErrNotFound       = errors.New("staff member not found")
	ErrEmailExists    = errors.New("a staff member with this email already exists")
	ErrUsernameExists = errors.New("a staff member with this username already exists")
	ErrNIPExists      = errors.New("a staff member with this NIP already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(username, email string, excludedStaff ...Staff) error
		CreateStaff(stf Staff) (Staff, error)
		QueryAllStaff() ([]Staff, error)
		GetStaffByID(id string) (Staff, error)
		GetStaffByNIP(nip string) (Staff, error)
		GetStaffByUsername(username string) (Staff, error)
		GetStaffByEmail(email string) (Staff, error)
		GetStaffByUsernameOrEmail(username string) (Staff, error)
		// FilterStaff applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Staff.Name, Staff.Username or Staff.Email.
		FilterStaff(filter QueryFilter) ([]Staff, error)
		UpdateStaff(stf Staff, isActive *bool) (Staff, error)
		DeleteStaffByID(ids ...string) error
	}

	Service interface {
		CheckUniqueness(uname, email string, exclStaff ...Staff) error
		Create(ns NewStaff) (Staff, error)
		QueryAll() ([]Staff, error)
		GetByID(id string) (Staff, error)
		GetByNIP(nip string) (Staff, error)
		GetByUsername(uname string) (Staff, error)
		GetByEmail(email string) (Staff, error)
		GetByUsernameOrEmail(uname string) (Staff, error)
		Filter(filter QueryFilter) ([]Staff, error)
		Update(id string, us UpdateStaff) (Staff, error)
		SetLastLogin(stf Staff) (Staff, error)
		RequestPasswordReset(email string) error
		ResetPassword(stf Staff, password, token string) error
		Delete(ids ...string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
	}
}

func (svc *service) CheckUniqueness(uname, email string, exclStaff ...Staff) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, email, exclStaff...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(ns NewStaff) (Staff, error) {
	if _, err := svc.repo.GetStaffByNIP(ns.NIP); err == nil {
		return Staff{}, core.NewValidationError(ErrNIPExists, core.FieldError{Field: "nip", Error: ErrNIPExists.Error()})
	} else if err != ErrNotFound {
		return Staff{}, err
	}

	now := time.Now().UTC()
	stf := Staff{
		ID:        uuid.New().String(),
		NIP:       ns.NIP,
		Name:      ns.Name,
		Username:  ns.Username,
		Email:     ns.Email,
		Roles:     ns.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	isActive := true
	stf.IsActive = &isActive
	if err := stf.SetPassword(ns.Password); err != nil {
		return Staff{}, err
	}
	return svc.repo.CreateStaff(stf)
}

func (svc *service) QueryAll() ([]Staff, error) {
	return svc.repo.QueryAllStaff()
}

func (svc *service) GetByID(id string) (Staff, error) {
	return svc.repo.GetStaffByID(id)
}

func (svc *service) GetByNIP(nip string) (Staff, error) {
	return svc.repo.GetStaffByNIP(core.CleanString(nip))
}

func (svc *service) GetByUsername(uname string) (Staff, error) {
	return svc.repo.GetStaffByUsername(core.CleanString(uname, true /* lower */))
}

func (svc *service) GetByEmail(email string) (Staff, error) {
	return svc.repo.GetStaffByEmail(core.CleanString(email, true /* lower */))
}

func (svc *service) GetByUsernameOrEmail(uname string) (Staff, error) {
	return svc.repo.GetStaffByUsernameOrEmail(core.CleanString(uname, true /* lower */))
}

func (svc *service) Filter(filter QueryFilter) ([]Staff, error) {
	return svc.repo.FilterStaff(filter)
}

func (svc *service) Update(id string, us UpdateStaff) (Staff, error) {
	stf := Staff{
		ID:        id,
		Name:      us.Name,
		Username:  us.Username,
		Email:     us.Email,
		Roles:     us.Roles,
		UpdatedAt: time.Now().UTC(),
	}
	if us.Password != "" {
		if err := stf.SetPassword(us.Password); err != nil {
			return Staff{}, err
		}
	}
	return svc.repo.UpdateStaff(stf, us.IsActive)
}

func (svc *service) SetLastLogin(stf Staff) (Staff, error) {
	stf.LastLogin = time.Now().UTC()
	return svc.repo.UpdateStaff(stf, nil)
}

func (svc *service) RequestPasswordReset(email string) error {
	stf, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(stf)
	return nil
}

func (svc *service) sendPasswordResetMail(stf Staff) {
	token, err := MakeToken(stf)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stf.Name, Address: stf.Email}},
		Subject:      fmt.Sprintf("Password Reset - %s", core.Conf.AppName),
		TemplateName: "password-reset",
		TemplateData: struct {
			Staff Staff
			UID   string
			Token string
		}{stf, EncodeUID(stf), token},
	})
}

func (svc *service) ResetPassword(stf Staff, password, token string) error {
	if err := verifyToken(stf, token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err := stf.SetPassword(password); err != nil {
		return err
	}
	stf.UpdatedAt = time.Now().UTC()
	_, err := svc.repo.UpdateStaff(stf, nil)
	return err
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteStaffByID(ids...)
}
