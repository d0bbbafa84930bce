/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/devicejobs/pkg/models"
)

func TestLatestInterfacesFrom(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := NewMockStore(ctrl)
	ctx := context.Background()

	res := models.NewSuccessResult("j:show ip interface brief", "10.0.0.1", models.CommandShowInterfaceBrief,
		time.Now(), "raw", models.RecordsOutput([]models.Record{
			models.InterfaceRow{Name: "Gi0/0", IPAddress: "10.0.0.1", Status: "up", Proto: "up"}.Record(),
			models.InterfaceRow{Name: "Gi0/1", IPAddress: "unassigned", Status: "administratively down", Proto: "down"}.Record(),
		}))

	mock.EXPECT().LatestResult(ctx, "10.0.0.1", models.CommandShowInterfaceBrief, true).Return(res, nil)

	records, err := LatestInterfacesFrom(ctx, mock, "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Gi0/0", records[0].Name)
	assert.True(t, records[0].Enabled)
	assert.False(t, records[1].Enabled)
}

func TestLatestInterfacesFromNoResult(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := NewMockStore(ctrl)

	mock.EXPECT().LatestResult(gomock.Any(), "10.0.0.9", models.CommandShowInterfaceBrief, true).
		Return(nil, ErrResultNotFound)

	records, err := LatestInterfacesFrom(context.Background(), mock, "10.0.0.9")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestLatestInterfacesFromError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := NewMockStore(ctrl)
	boom := errors.New("boom")

	mock.EXPECT().LatestResult(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := LatestInterfacesFrom(context.Background(), mock, "10.0.0.1")
	require.ErrorIs(t, err, boom)
}

func TestValidateDevice(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, ValidateDevice(nil), ErrInvalidDevice)
	require.ErrorIs(t, ValidateDevice(&models.DeviceCredentials{IP: "10.0.0.1"}), ErrInvalidDevice)
	require.NoError(t, ValidateDevice(&models.DeviceCredentials{IP: "10.0.0.1", Username: "admin"}))
}
