package participant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerbot/internal/participant"
)

func TestService_FindByChannel_Caches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := participant.NewMockRepository(ctrl)
	repo.EXPECT().
		FindByChannel(gomock.Any(), "42").
		Return(&participant.Profile{Channel: "42", PayPal: "a@b.com"}, nil).
		Times(1)

	svc := participant.NewService(repo)

	for range 3 {
		got, err := svc.FindByChannel(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", got.PayPal)
	}
}

func TestService_FindByChannel_NotFoundIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := participant.NewMockRepository(ctrl)
	repo.EXPECT().FindByChannel(gomock.Any(), "7").Return(nil, participant.ErrNotFound).Times(2)

	svc := participant.NewService(repo)

	for range 2 {
		_, err := svc.FindByChannel(context.Background(), "7")
		assert.ErrorIs(t, err, participant.ErrNotFound)
	}
}

func TestService_Upsert(t *testing.T) {
	type testCase struct {
		name      string
		profile   *participant.Profile
		setupMock func(m *participant.MockRepository)
		wantErr   bool
	}

	tests := []testCase{
		{
			name:    "NormalizesHandleAndRefreshesCache",
			profile: &participant.Profile{Handle: " @maria ", Channel: "42", PayPal: "new@b.com"},
			setupMock: func(m *participant.MockRepository) {
				m.EXPECT().
					Upsert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *participant.Profile) error {
						assert.Equal(t, "maria", p.Handle)
						return nil
					})
			},
		},
		{
			name:    "MissingChannel",
			profile: &participant.Profile{Handle: "maria"},
			wantErr: true,
		},
		{
			name:    "RepoError",
			profile: &participant.Profile{Channel: "42"},
			setupMock: func(m *participant.MockRepository) {
				m.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := participant.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := participant.NewService(repo)
			err := svc.Upsert(context.Background(), tt.profile)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			got, err := svc.FindByChannel(context.Background(), "42")
			require.NoError(t, err)
			assert.Equal(t, "new@b.com", got.PayPal)
		})
	}
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "maria", participant.NormalizeHandle("@maria"))
	assert.Equal(t, "maria", participant.NormalizeHandle("  maria "))
}
