package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orientd/internal/classify"
	"orientd/internal/encode"
	"orientd/internal/lock"
	"orientd/internal/orientation"
	"orientd/internal/sensor"
)

func TestHandleMethod_SetPreferred(t *testing.T) {
	st := &lock.State{}
	p := &Plugin{Platform: orientation.Android, Applicator: st}

	cases := []struct {
		args  any
		want  encode.LockConstraint
		lossy bool
	}{
		{nil, encode.Unspecified, false},
		{[]any{"portraitUp"}, encode.Portrait, false},
		{[]any{"DeviceOrientation.portraitUp", "DeviceOrientation.portraitDown"}, encode.UserPortrait, false},
		{[]string{"landscapeLeft", "landscapeRight", "portraitUp"}, encode.User, false},
		{[]any{"portraitUp", "landscapeLeft"}, encode.FullUser, true},
		{[]any{"sideways"}, encode.Unspecified, false},
	}
	for _, tc := range cases {
		res := p.HandleMethod(Call{Method: MethodSetPreferredOrientations, Arguments: tc.args})
		require.Nil(t, res.Error, "args=%v", tc.args)
		require.NotNil(t, res.Value)
		assert.Equal(t, tc.want, res.Value.Constraint, "args=%v", tc.args)
		assert.Equal(t, tc.want.Native(), res.Value.Native)
		assert.Equal(t, tc.lossy, res.Value.Lossy, "args=%v", tc.args)
		assert.Nil(t, res.Value.InterfaceMask)
		assert.Equal(t, tc.want, st.Current())
	}
}

func TestHandleMethod_ApplePreferredCarriesInterfaceMask(t *testing.T) {
	p := &Plugin{Platform: orientation.Apple, Applicator: &lock.State{}}
	res := p.HandleMethod(Call{Method: MethodSetPreferredOrientations, Arguments: []any{"landscapeLeft"}})
	require.NotNil(t, res.Value)
	require.NotNil(t, res.Value.InterfaceMask)
	assert.Equal(t, encode.InterfaceLandscapeLeft, *res.Value.InterfaceMask)
	assert.Equal(t, encode.Landscape, res.Value.Constraint)
}

func TestHandleMethod_Force(t *testing.T) {
	st := &lock.State{}
	p := &Plugin{Platform: orientation.Android, Applicator: st}

	res := p.HandleMethod(Call{Method: MethodForceOrientation, Arguments: "portraitUp"})
	require.NotNil(t, res.Value)
	assert.Equal(t, encode.Portrait, res.Value.Constraint)

	res = p.HandleMethod(Call{Method: MethodForceOrientation, Arguments: "landscapeLeft"})
	assert.Equal(t, encode.ReverseLandscape, res.Value.Constraint)

	res = p.HandleMethod(Call{Method: MethodForceOrientation, Arguments: "sideways"})
	assert.Equal(t, encode.Unspecified, res.Value.Constraint)

	res = p.HandleMethod(Call{Method: MethodForceOrientation})
	assert.Equal(t, encode.Unspecified, res.Value.Constraint)
	assert.Equal(t, uint64(3), st.Changes())
}

func TestHandleMethod_Errors(t *testing.T) {
	p := &Plugin{Platform: orientation.Android}
	res := p.HandleMethod(Call{Method: MethodForceOrientation, Arguments: "portraitUp"})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorCodeNoActivity, res.Error.Code)

	p.Applicator = &lock.State{}
	res = p.HandleMethod(Call{Method: MethodSetPreferredOrientations, Arguments: "portraitUp"})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorCodeBadArgs, res.Error.Code)

	res = p.HandleMethod(Call{Method: MethodSetPreferredOrientations, Arguments: []any{"portraitUp", 3.0}})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorCodeBadArgs, res.Error.Code)

	res = p.HandleMethod(Call{Method: MethodForceOrientation, Arguments: 1.0})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorCodeBadArgs, res.Error.Code)

	p.Applicator = lock.Func(func(encode.LockConstraint) error { return errors.New("window gone") })
	res = p.HandleMethod(Call{Method: MethodForceOrientation, Arguments: "portraitUp"})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorCodeApply, res.Error.Code)

	res = p.HandleMethod(Call{Method: "SystemChrome.setApplicationSwitcherDescription"})
	assert.True(t, res.NotImplemented)
	assert.Nil(t, res.Error)
	assert.Nil(t, res.Value)
}

func TestHandleMethod_SetEnabledOverlays(t *testing.T) {
	st := &lock.State{}
	p := &Plugin{Platform: orientation.Android, Overlays: st}

	cases := []struct {
		args any
		want encode.SystemUIFlags
	}{
		{nil, encode.Immersive},
		{[]any{"SystemUiOverlay.top"}, encode.Immersive &^ encode.UIFlagFullscreen},
		{[]string{"SystemUiOverlay.bottom", "SystemUiOverlay.top"}, encode.Immersive &^ (encode.UIFlagFullscreen | encode.UIFlagHideNavigation)},
		{[]any{"SystemUiOverlay.left"}, encode.Immersive},
	}
	for _, tc := range cases {
		res := p.HandleMethod(Call{Method: MethodSetEnabledOverlays, Arguments: tc.args})
		require.Nil(t, res.Error, "args=%v", tc.args)
		require.NotNil(t, res.SystemUIFlags, "args=%v", tc.args)
		assert.Equal(t, tc.want, *res.SystemUIFlags, "args=%v", tc.args)
		assert.Nil(t, res.Value)
		cur, _ := st.Overlays()
		assert.Equal(t, tc.want, cur)
	}
	assert.Zero(t, st.Changes())
}

func TestHandleMethod_SetEnabledOverlaysErrors(t *testing.T) {
	p := &Plugin{Platform: orientation.Android, Applicator: &lock.State{}}
	res := p.HandleMethod(Call{Method: MethodSetEnabledOverlays, Arguments: []any{"SystemUiOverlay.top"}})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorCodeNoActivity, res.Error.Code)

	p.Overlays = &lock.State{}
	res = p.HandleMethod(Call{Method: MethodSetEnabledOverlays, Arguments: "SystemUiOverlay.top"})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorCodeBadArgs, res.Error.Code)

	p.Overlays = lock.OverlayFunc(func(encode.SystemUIFlags) error { return errors.New("window gone") })
	res = p.HandleMethod(Call{Method: MethodSetEnabledOverlays})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorCodeApply, res.Error.Code)

	apple := &Plugin{Platform: orientation.Apple, Overlays: &lock.State{}}
	res = apple.HandleMethod(Call{Method: MethodSetEnabledOverlays, Arguments: []any{"SystemUiOverlay.top"}})
	assert.True(t, res.NotImplemented)
	assert.Nil(t, res.SystemUIFlags)
}

func TestListen_TracksSubscriptions(t *testing.T) {
	src := &scriptSource{block: true, samples: []sensor.Sample{sensor.AngleSample(270)}}
	p := &Plugin{Platform: orientation.Android, Mode: classify.ModeAngle, Sources: func() (sensor.Source, error) { return src, nil }}

	var rec recorder
	sub, err := p.Listen(context.Background(), rec.sink)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, orientation.LandscapeRight, rec.snapshot()[0].Orientation)
	assert.Equal(t, 1, p.Listeners())

	p.CancelAll()
	<-sub.Done()
	require.Eventually(t, func() bool { return p.Listeners() == 0 }, 2*time.Second, time.Millisecond)
}

func TestListen_OpenFailureBecomesSensorError(t *testing.T) {
	p := &Plugin{Sources: func() (sensor.Source, error) { return nil, errors.New("no imu") }}
	var rec recorder
	sub, err := p.Listen(context.Background(), rec.sink)
	require.NoError(t, err)
	waitDone(t, sub)
	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, ErrorCodeSensor, got[0].Code)
}

func TestListen_NoFactory(t *testing.T) {
	_, err := (&Plugin{}).Listen(context.Background(), func(Event) {})
	require.Error(t, err)
}
